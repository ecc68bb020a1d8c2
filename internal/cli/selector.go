package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hnaderi/pctl/internal/engine"
)

// endpointFlags picks the target endpoint. Exactly one kind must be used.
type endpointFlags struct {
	id       int
	name     string
	tagNames []string
	tagIDs   []int
}

func (f *endpointFlags) bind(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.id, "endpoint-id", 0, "Endpoint id")
	cmd.Flags().StringVar(&f.name, "endpoint", "", "Endpoint name")
	cmd.Flags().StringArrayVar(&f.tagNames, "tag", nil, "Tag name; repeat to require several tags")
	cmd.Flags().IntSliceVar(&f.tagIDs, "tag-id", nil, "Tag id; repeat to require several tags")
}

func (f *endpointFlags) selector(cmd *cobra.Command) (engine.Selector, error) {
	var chosen []engine.Selector
	if cmd.Flags().Changed("endpoint-id") {
		chosen = append(chosen, engine.ByID(f.id))
	}
	if cmd.Flags().Changed("endpoint") {
		chosen = append(chosen, engine.ByName(f.name))
	}
	if len(f.tagNames) > 0 {
		chosen = append(chosen, engine.ByTagNames(f.tagNames...))
	}
	if len(f.tagIDs) > 0 {
		chosen = append(chosen, engine.ByTagIDs(f.tagIDs...))
	}

	switch len(chosen) {
	case 0:
		return engine.Selector{}, fmt.Errorf("an endpoint is required: use --endpoint-id, --endpoint, --tag or --tag-id")
	case 1:
		if err := chosen[0].Validate(); err != nil {
			return engine.Selector{}, err
		}
		return chosen[0], nil
	default:
		return engine.Selector{}, fmt.Errorf("use only one of --endpoint-id, --endpoint, --tag or --tag-id")
	}
}
