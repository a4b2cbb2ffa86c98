package syrmorph

import (
	"fmt"
	"strings"
)

// Model is a named model choice of the CLI.
type Model struct {
	Alias string `json:"alias"`
	ID    string `json:"id"`
}

// DefaultModel is the low-cost model used when none is named.
const DefaultModel = "free"

var models = []Model{
	{Alias: "free", ID: "qwen2.5-1.5b-instruct"},
	{Alias: "turbo", ID: "qwen-turbo"},
	{Alias: "plus", ID: "qwen-plus"},
	{Alias: "max", ID: "qwen-max"},
	{Alias: "max-0919", ID: "qwen-max-0919"},
	{Alias: "llama", ID: "llama3.1-405b-instruct"},
}

// Models lists the model aliases in table order.
func Models() []Model {
	out := make([]Model, len(models))
	copy(out, models)
	return out
}

// ResolveModel maps an alias to its model id. Case and the choice between
// '-' and '_' do not matter. Empty selects DefaultModel.
func ResolveModel(name string) (string, error) {
	if name == "" {
		name = DefaultModel
	}
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
	for _, m := range models {
		if m.Alias == key {
			return m.ID, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownModel, name)
}
