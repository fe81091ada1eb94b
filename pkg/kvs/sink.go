// pkg/kvs/sink.go
package kvs

import (
	"context"
	"sort"

	"stratus/pkg/errs"
	"stratus/pkg/resolve"
)

// MaxValueBytes mirrors the CloudFront KeyValueStore per-value limit.
const MaxValueBytes = resolve.MaxEntryBytes

// Sink accepts (domain, serialized entry) pairs. Implementations own
// transport and retry policy; all of them reject oversized values.
type Sink interface {
	Put(ctx context.Context, key string, value []byte) error
}

// Publish serializes every entry of the document and pushes it through
// the sink in sorted domain order. The first failure aborts the
// publish; callers treat the document as one atomic snapshot and do not
// publish partially resolved state.
func Publish(ctx context.Context, sink Sink, doc resolve.Document) error {
	domains := make([]string, 0, len(doc))
	for d := range doc {
		domains = append(domains, d)
	}
	sort.Strings(domains)
	for _, domain := range domains {
		raw, err := doc[domain].Marshal()
		if err != nil {
			return err
		}
		if err := sink.Put(ctx, domain, raw); err != nil {
			return errs.Wrap(err, "", "publishing entry for %q", domain)
		}
	}
	return nil
}

func checkSize(key string, value []byte) error {
	if len(value) > MaxValueBytes {
		return errs.New(errs.PayloadTooLarge, "value for %q is %d bytes (limit %d)", key, len(value), MaxValueBytes)
	}
	return nil
}
