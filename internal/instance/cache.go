package instance

import (
	"log/slog"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/roach88/ecreader/internal/model"
)

// PlanCache maps ClassID to its extraction plan.
//
// Installed plans are read without locks. The first lookup of a class
// builds its plan exactly once even under concurrent first access; other
// callers for the same class wait for that build, callers for other classes
// do not. Plans are never evicted, and a build error is remembered for the
// class because the model it was built from cannot change.
type PlanCache struct {
	cat     Catalog
	entries *xsync.MapOf[model.ClassID, *planEntry]
	metrics *Metrics
	logger  *slog.Logger
}

type planEntry struct {
	once sync.Once
	plan *Plan
	err  error
}

func newPlanCache(cat Catalog, metrics *Metrics, logger *slog.Logger) *PlanCache {
	return &PlanCache{
		cat:     cat,
		entries: xsync.NewMapOf[model.ClassID, *planEntry](),
		metrics: metrics,
		logger:  logger,
	}
}

// GetOrBuild returns the plan for id, building it on first use.
func (c *PlanCache) GetOrBuild(id model.ClassID) (*Plan, error) {
	e, ok := c.entries.Load(id)
	if ok {
		c.metrics.PlanLookups.WithLabelValues("hit").Inc()
	} else {
		// Unknown ids are not cached so garbage input cannot grow the map.
		if _, err := c.cat.Resolve(id); err != nil {
			return nil, err
		}
		c.metrics.PlanLookups.WithLabelValues("miss").Inc()
		e, _ = c.entries.LoadOrStore(id, &planEntry{})
	}

	e.once.Do(func() {
		e.plan, e.err = buildPlan(c.cat, id)
		if e.err != nil {
			c.metrics.PlanBuilds.WithLabelValues("error").Inc()
			c.logger.Warn("plan build failed", "class_id", uint64(id), "error", e.err)
			return
		}
		c.metrics.PlanBuilds.WithLabelValues("ok").Inc()
		c.logger.Debug("plan built",
			"class", e.plan.QualifiedName,
			"steps", len(e.plan.Steps),
			"sql", e.plan.query.SQL)
	})
	return e.plan, e.err
}

// Len returns the number of classes with a cached plan or build error.
func (c *PlanCache) Len() int {
	return c.entries.Size()
}
