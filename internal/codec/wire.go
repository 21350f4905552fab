package codec

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// call sends req as a google.protobuf.Struct to the given full method name
// and decodes the Struct reply into out via its JSON form. A positive timeout
// bounds this call only.
func call(ctx context.Context, conn grpc.ClientConnInterface, timeout time.Duration, method string, req map[string]any, out any) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	in, err := structpb.NewStruct(req)
	if err != nil {
		return fmt.Errorf("encode %s: %w", method, err)
	}
	reply := &structpb.Struct{}
	if err := conn.Invoke(ctx, method, in, reply); err != nil {
		return fmt.Errorf("%s rpc: %w", method, err)
	}
	raw, err := protojson.Marshal(reply)
	if err != nil {
		return fmt.Errorf("%s reply: %w", method, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s reply: %w: %v", method, ErrMalformed, err)
	}
	return nil
}

// stringList converts to the []any form structpb accepts.
func stringList(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// document turns a raw JSON record into a struct-compatible map.
func document(raw json.RawMessage) (map[string]any, error) {
	if len(raw) == 0 {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return m, nil
}

// dial opens an insecure client connection; the services run next to the engine.
func dial(addr string) (*grpc.ClientConn, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return conn, nil
}
