package config

import (
	statehooks "github.com/devesharp/statehooks"
	"github.com/devesharp/statehooks/form"
	"github.com/devesharp/statehooks/list"
	"github.com/devesharp/statehooks/pkg/validation"
)

// EngineOptions turns the engine section into engine options
func (c Config) EngineOptions() []statehooks.EngineOption {
	var opts []statehooks.EngineOption
	if c.Engine.RunOnMount != nil {
		opts = append(opts, statehooks.WithRunOnMount(*c.Engine.RunOnMount))
	}
	if c.Engine.ConcurrencyLimit > 0 {
		opts = append(opts, statehooks.WithConcurrencyLimit(c.Engine.ConcurrencyLimit))
	}
	if len(c.Engine.CriticalKeys) > 0 {
		opts = append(opts, statehooks.WithCriticalKeys(c.Engine.CriticalKeys...))
	}
	return opts
}

// ReloadOptions turns the reload section into reload controller options
func (c Config) ReloadOptions() []statehooks.ReloadOption {
	return []statehooks.ReloadOption{
		statehooks.WithReloadDelay(c.Reload.Delay),
		statehooks.WithKeepDataOnReload(c.Reload.KeepData),
	}
}

// FormOptions turns the form, reload and engine sections into tracker options
func (c Config) FormOptions() []form.Option {
	var opts []form.Option
	if c.Form.UpdateResourceOnSave != nil {
		opts = append(opts, form.WithUpdateResourceOnSave(*c.Form.UpdateResourceOnSave))
	}
	if c.Form.StrictResolvers {
		opts = append(opts, form.WithStrictResolvers())
	}
	opts = append(opts, form.WithReloadOptions(c.ReloadOptions()...))
	if engine := c.EngineOptions(); len(engine) > 0 {
		opts = append(opts, form.WithEngineOptions(engine...))
	}
	return opts
}

// ValidationOptions turns the form section into validation options
func (c Config) ValidationOptions() []validation.Option {
	if c.Form.NestedErrors {
		return []validation.Option{validation.Nested()}
	}
	return nil
}

// ListOptions turns the list and engine sections into accumulator options
func ListOptions[T any](c Config) []list.Option[T] {
	opts := []list.Option[T]{list.WithLimit[T](c.List.Limit)}
	if c.List.Infinite {
		opts = append(opts, list.WithInfinite[T](list.Infinite{
			Enabled:       true,
			Bidirectional: c.List.Bidirectional,
			InitialOffset: c.List.InitialOffset,
		}))
	}
	if engine := c.EngineOptions(); len(engine) > 0 {
		opts = append(opts, list.WithEngineOptions[T](engine...))
	}
	return opts
}
