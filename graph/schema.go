package graph

import (
	"context"
	_ "embed"
	"fmt"

	graphql "github.com/graph-gophers/graphql-go"
	"go.uber.org/zap"
)

//go:embed schema.graphql
var SDL string

const maxQueryDepth = 10

// NewSchema binds the SDL to r. It fails if any Query or Mutation field has
// no matching resolver method.
func NewSchema(r *Resolver) (*graphql.Schema, error) {
	return graphql.ParseSchema(SDL, r,
		graphql.MaxDepth(maxQueryDepth),
		graphql.Logger(panicLogger{log: r.log}),
	)
}

// panicLogger reports resolver panics, which the engine turns into query errors.
type panicLogger struct {
	log *zap.Logger
}

func (l panicLogger) LogPanic(_ context.Context, value interface{}) {
	l.log.Error("graphql: panic occurred", zap.String("panic", fmt.Sprint(value)), zap.Stack("stack"))
}
