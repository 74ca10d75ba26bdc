// Package fraudgraph tracks which sessions presented which identifier hashes
// in Neo4j and reports prior reuse of the same identifier. The signal is
// advisory: the pipeline records it on the session but never gates on it.
package fraudgraph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

type Graph struct {
	driver neo4j.DriverWithContext
}

func New(ctx context.Context, uri, username, password string) (*Graph, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("verify neo4j connectivity: %w", err)
	}
	return &Graph{driver: driver}, nil
}

func (g *Graph) Close(ctx context.Context) error {
	return g.driver.Close(ctx)
}

// RecordPresentation links the session to the identifier hash and returns how
// many other sessions presented the same hash before this one. Hashes, never
// raw identifiers, reach the graph.
func (g *Graph) RecordPresentation(ctx context.Context, sessionID, identifierHash string) (int, error) {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	prior, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `
MERGE (i:Identifier {hash: $hash})
WITH i
OPTIONAL MATCH (prev:Session)-[:PRESENTED]->(i)
WHERE prev.id <> $session_id
WITH i, count(prev) AS prior
MERGE (s:Session {id: $session_id})
MERGE (s)-[:PRESENTED]->(i)
RETURN prior
`, map[string]any{"hash": identifierHash, "session_id": sessionID})
		if err != nil {
			return nil, err
		}
		record, err := result.Single(ctx)
		if err != nil {
			return nil, err
		}
		value, found := record.Get("prior")
		if !found {
			return int64(0), nil
		}
		return value, nil
	})
	if err != nil {
		return 0, fmt.Errorf("record identifier presentation: %w", err)
	}

	count, ok := prior.(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected prior count type %T", prior)
	}
	return int(count), nil
}
