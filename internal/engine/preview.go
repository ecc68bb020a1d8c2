package engine

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/hnaderi/pctl/internal/env"
	"github.com/hnaderi/pctl/internal/logging"
)

// palette colors preview verbs. Colors are off unless the writer is a terminal.
type palette struct {
	header *color.Color
	create *color.Color
	update *color.Color
	remove *color.Color
	muted  *color.Color
}

func paletteFor(w io.Writer) palette {
	p := palette{
		header: color.New(color.Bold),
		create: color.New(color.FgGreen),
		update: color.New(color.FgYellow),
		remove: color.New(color.FgRed),
		muted:  color.New(color.FgHiBlack),
	}
	if color.NoColor || !logging.IsTerminal(w) {
		for _, c := range []*color.Color{p.header, p.create, p.update, p.remove, p.muted} {
			c.DisableColor()
		}
	}
	return p
}

// Preview writes a human-readable description of p. It performs no calls.
func (p *Plan) Preview(w io.Writer) error {
	c := paletteFor(w)
	var b strings.Builder

	switch p.Kind {
	case PlanDeploy:
		d := p.Deploy
		b.WriteString(c.header.Sprintf("Deploy to endpoint %d:", p.EndpointID) + "\n")
		for _, m := range d.Configs {
			fmt.Fprintf(&b, "  %s config %s from %s\n", c.create.Sprint("create"), m.Name, m.Path)
		}
		for _, m := range d.Secrets {
			fmt.Fprintf(&b, "  %s secret %s from %s\n", c.create.Sprint("create"), m.Name, m.Path)
		}
		switch d.Stack.Disposition {
		case StackCreate:
			fmt.Fprintf(&b, "  %s stack %s in swarm %s from %s\n", c.create.Sprint("create"), d.Stack.Name, d.Stack.SwarmID, d.ComposePath)
		case StackUpdate:
			fmt.Fprintf(&b, "  %s stack %s (id %d) from %s, pruning removed services\n", c.update.Sprint("update"), d.Stack.Name, d.Stack.StackID, d.ComposePath)
		}
		if keys := env.Merge(d.Env).Keys(); len(keys) > 0 {
			fmt.Fprintf(&b, "  environment: %s\n", strings.Join(keys, ", "))
		}
	case PlanDestroy:
		d := p.Destroy
		b.WriteString(c.header.Sprintf("Destroy on endpoint %d:", p.EndpointID) + "\n")
		if d.Empty() {
			b.WriteString("  " + c.muted.Sprint("nothing matched") + "\n")
		}
		for _, s := range d.Stacks {
			fmt.Fprintf(&b, "  %s stack %s (id %d)\n", c.remove.Sprint("delete"), s.Name, s.ID)
		}
		for _, o := range d.Configs {
			fmt.Fprintf(&b, "  %s config %s (id %s)\n", c.remove.Sprint("delete"), o.Name, o.ID)
		}
		for _, o := range d.Secrets {
			fmt.Fprintf(&b, "  %s secret %s (id %s)\n", c.remove.Sprint("delete"), o.Name, o.ID)
		}
		writeMissing(&b, c, "stacks", d.Missing.Stacks)
		writeMissing(&b, c, "configs", d.Missing.Configs)
		writeMissing(&b, c, "secrets", d.Missing.Secrets)
	default:
		return fmt.Errorf("unknown plan kind %d", p.Kind)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeMissing(b *strings.Builder, c palette, what string, names []string) {
	if len(names) == 0 {
		return
	}
	b.WriteString("  " + c.muted.Sprintf("not found, skipped %s: %s", what, strings.Join(names, ", ")) + "\n")
}
