package providers

import (
	"context"
	"fmt"
	"reflect"

	"github.com/km-arc/go-housekeeper/app/cleanup"
	"github.com/km-arc/go-housekeeper/app/settings"
	"github.com/km-arc/go-housekeeper/framework/config"
	"github.com/km-arc/go-housekeeper/framework/container"
	fwproviders "github.com/km-arc/go-housekeeper/framework/providers"
)

// AnalyzersTag groups the analyzers run by the cleaner, in run order.
const AnalyzersTag = "cleanup.analyzers"

// CleanupServiceProvider wires the cleanup analyzers on first use.
//
// Bound identifiers:
//   - Key[cleanup.Policy]() → config overridden by stored settings
//   - Key[*cleanup.Cleaner]() → a cleaner over every tagged analyzer
//   - "cleanup" (alias)
//
// Both are rebuilt on every resolution so settings changes apply to the
// next run.
type CleanupServiceProvider struct {
	container.BaseProvider
}

func (p *CleanupServiceProvider) Name() string     { return "CleanupServiceProvider" }
func (p *CleanupServiceProvider) IsDeferred() bool { return true }
func (p *CleanupServiceProvider) Provides() []string {
	return []string{container.Key[*cleanup.Cleaner](), "cleanup", container.Key[cleanup.Policy]()}
}

func (p *CleanupServiceProvider) Register(app *container.Container) error {
	p.Bind(container.Key[cleanup.Policy](), policy)

	// Run order matters: trash removal also drops the revisions of the
	// posts it deletes.
	analyzers := []any{
		cleanup.NewTrashAnalyzer,
		cleanup.NewRevisionsAnalyzer,
		cleanup.NewSpamAnalyzer,
		cleanup.NewTransientsAnalyzer,
	}
	ids := make([]string, 0, len(analyzers))
	for _, fn := range analyzers {
		if err := p.Constructor(fn); err != nil {
			return err
		}
		ids = append(ids, container.TypeKeyOf(reflect.TypeOf(fn).Out(0)))
	}
	app.Tag(ids, AnalyzersTag)

	key := container.Key[*cleanup.Cleaner]()
	p.Bind(key, func(c *container.Container) (any, error) {
		tagged, err := c.Tagged(AnalyzersTag)
		if err != nil {
			return nil, err
		}
		list := make([]cleanup.Analyzer, 0, len(tagged))
		for _, t := range tagged {
			a, ok := t.(cleanup.Analyzer)
			if !ok {
				return nil, fmt.Errorf("%T is not a cleanup.Analyzer", t)
			}
			list = append(list, a)
		}
		return cleanup.NewCleaner(fwproviders.Logger(c, "cleanup"), list...), nil
	})
	p.Alias("cleanup", key)
	return nil
}

func policy(c *container.Container) (any, error) {
	cfg, err := container.Resolve[*config.Config](c, "config")
	if err != nil {
		return nil, err
	}
	store, err := container.Resolve[*settings.Store](c, "settings")
	if err != nil {
		return nil, err
	}
	stored, err := store.Map(context.Background())
	if err != nil {
		return nil, err
	}
	return cleanup.PolicyFromConfig(cfg.Cleanup).Override(stored), nil
}
