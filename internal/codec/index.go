package codec

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
)

const (
	methodSearchDiseases  = "/clinical.v1.IndexService/SearchDiseases"
	methodSearchMedicines = "/clinical.v1.IndexService/SearchMedicines"
	methodStoreFragment   = "/clinical.v1.IndexService/StoreFragment"
)

// #region client-struct
// IndexClient talks to the vector index service that holds disease symptom
// fragments and medicine indication fragments.
type IndexClient struct {
	conn    grpc.ClientConnInterface
	closer  func() error
	timeout time.Duration
}

// #endregion client-struct

// #region constructor
// NewIndexClient connects to the index gRPC server.
func NewIndexClient(addr string) (*IndexClient, error) {
	conn, err := dial(addr)
	if err != nil {
		return nil, err
	}
	return &IndexClient{conn: conn, closer: conn.Close}, nil
}

// NewIndexClientWithConn creates an IndexClient over an injected connection.
// Used for testing without a real gRPC server.
func NewIndexClientWithConn(conn grpc.ClientConnInterface) *IndexClient {
	return &IndexClient{conn: conn}
}

// WithTimeout sets the deadline applied to each call. Zero disables it.
func (c *IndexClient) WithTimeout(d time.Duration) *IndexClient {
	c.timeout = d
	return c
}

// Close shuts down the gRPC connection.
func (c *IndexClient) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer()
}

// #endregion constructor

// #region search
type hitsReply struct {
	Hits []Hit `json:"hits"`
}

// SearchDiseases returns the topK symptom fragments nearest to queryText,
// in the order the index ranks them.
func (c *IndexClient) SearchDiseases(ctx context.Context, queryText string, topK int) ([]Hit, error) {
	var out hitsReply
	err := call(ctx, c.conn, c.timeout, methodSearchDiseases, map[string]any{
		"query_text": queryText,
		"top_k":      topK,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.Hits, nil
}

// SearchMedicines returns indication fragments whose owner treats diseaseID.
// OwnerID on each hit is the medicine id.
func (c *IndexClient) SearchMedicines(ctx context.Context, diseaseID string, topK int) ([]Hit, error) {
	var out hitsReply
	err := call(ctx, c.conn, c.timeout, methodSearchMedicines, map[string]any{
		"disease_id": diseaseID,
		"top_k":      topK,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.Hits, nil
}

// #endregion search

// #region store-fragment
// StoreFragment upserts one fragment into the named collection and returns its id.
func (c *IndexClient) StoreFragment(ctx context.Context, f Fragment) (string, error) {
	meta := make(map[string]any, len(f.Metadata))
	for k, v := range f.Metadata {
		meta[k] = v
	}
	var out struct {
		ID string `json:"id"`
	}
	err := call(ctx, c.conn, c.timeout, methodStoreFragment, map[string]any{
		"collection": f.Collection,
		"id":         f.ID,
		"text":       f.Text,
		"owner_id":   f.OwnerID,
		"metadata":   meta,
	}, &out)
	if err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", fmt.Errorf("store fragment %s: %w: empty id", f.ID, ErrMalformed)
	}
	return out.ID, nil
}

// #endregion store-fragment
