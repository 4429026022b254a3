package ability

import (
	"context"
	"fmt"
	"time"

	"supportflow/internal/services"
	"supportflow/internal/state"
)

// CallObserver receives every completed call along with its wall time.
type CallObserver func(Result, time.Duration)

// Dispatcher runs a list of abilities against one provider strictly in order.
type Dispatcher struct {
	Mapper   *Mapper
	Observer CallObserver
}

// NewDispatcher returns a dispatcher using mapper for parameters.
func NewDispatcher(mapper *Mapper) *Dispatcher {
	if mapper == nil {
		mapper = NewMapper(nil)
	}
	return &Dispatcher{Mapper: mapper}
}

// Dispatch executes abilities in order and returns one result per call.
// Failed abilities do not stop the sequence. A parameter mapping error or a
// cancelled context ends the dispatch early; the results gathered so far are
// returned with the error.
func (d *Dispatcher) Dispatch(ctx context.Context, client Client, abilities []Name, st *state.State) ([]Result, error) {
	if client == nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "dispatch", "no provider client", nil)
	}
	results := make([]Result, 0, len(abilities))
	for _, name := range abilities {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		params, err := d.Mapper.Params(name, st)
		if err != nil {
			return results, fmt.Errorf("map parameters for %s: %w", name, err)
		}
		start := time.Now()
		res := client.Execute(ctx, name, params)
		if res.Ability == "" {
			res.Ability = name
		}
		if res.Provider == "" {
			res.Provider = client.Name()
		}
		if d.Observer != nil {
			d.Observer(res, time.Since(start))
		}
		results = append(results, res)
	}
	return results, nil
}
