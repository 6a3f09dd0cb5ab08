package domain

import "context"

// TableLoader reads the whole transaction table.
// A missing backing object yields an empty table, not an error.
type TableLoader interface {
	Load(ctx context.Context) (Table, error)
}

// TableWriter replaces the whole transaction table.
type TableWriter interface {
	Save(ctx context.Context, t Table) error
}

// TableRepository is the read-modify-write view of the transaction table.
type TableRepository interface {
	TableLoader
	TableWriter
}

// RuleLoader reads the ordered rule list. Disabled rules are dropped unless
// includeDisabled is set.
type RuleLoader interface {
	Load(ctx context.Context, includeDisabled bool) ([]OverspendingRule, error)
}

// RuleRepository is the read-modify-write view of the rule list. NextID
// returns an id no stored or deleted rule has carried.
type RuleRepository interface {
	RuleLoader
	Save(ctx context.Context, rules []OverspendingRule) error
	NextID(ctx context.Context) (int64, error)
}

// Notifier delivers a short message to the operator.
type Notifier interface {
	Notify(ctx context.Context, subject, body, sender string) error
}
