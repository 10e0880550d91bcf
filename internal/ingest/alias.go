package ingest

import "github.com/flibusta-go/libupdater/internal/ingest/literal"

// Literal and Kind are aliases of the leaf literal package's types, so the
// extractor and every [Entity] implementation in internal/ingest/entities
// agree on one identical type without entities needing to import ingest.
type (
	Literal = literal.Literal
	Kind    = literal.Kind
)

const (
	KindInteger        = literal.KindInteger
	KindNegatedInteger = literal.KindNegatedInteger
	KindString         = literal.KindString
	KindNull           = literal.KindNull
)
