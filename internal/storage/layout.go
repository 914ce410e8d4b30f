package storage

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// DefaultPartition is the directory value used for a null partition value,
// matching what Hive and Spark write.
const DefaultPartition = "__HIVE_DEFAULT_PARTITION__"

// PartitionPath renders cols/values as "col=val/col=val". Characters that
// would break the layout are percent-escaped.
func PartitionPath(cols []string, values []any) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = escapePathName(c) + "=" + partitionValue(values[i])
	}
	return strings.Join(parts, "/")
}

func partitionValue(v any) string {
	switch x := v.(type) {
	case nil:
		return DefaultPartition
	case string:
		if x == "" {
			return DefaultPartition
		}
		return escapePathName(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return escapePathName(fmt.Sprint(x))
	}
}

// escapePathName escapes the same character set Hive's FileUtils does.
func escapePathName(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 0x20 || c == 0x7f || strings.IndexByte(`"#%'*/:=?\{[]^`, c) >= 0 {
			fmt.Fprintf(&b, "%%%02X", c)
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// ParsePartitionPath is the inverse of PartitionPath. Values come back as
// strings; DefaultPartition comes back as the empty string with ok=false.
func ParsePartitionPath(p string) ([]PartitionValue, error) {
	if p == "" {
		return nil, nil
	}
	segs := strings.Split(strings.Trim(p, "/"), "/")
	out := make([]PartitionValue, 0, len(segs))
	for _, seg := range segs {
		k, v, ok := strings.Cut(seg, "=")
		if !ok {
			return nil, fmt.Errorf("partition segment %q has no '='", seg)
		}
		col, err := url.PathUnescape(k)
		if err != nil {
			return nil, fmt.Errorf("partition segment %q: %w", seg, err)
		}
		if v == DefaultPartition {
			out = append(out, PartitionValue{Column: col})
			continue
		}
		val, err := url.PathUnescape(v)
		if err != nil {
			return nil, fmt.Errorf("partition segment %q: %w", seg, err)
		}
		out = append(out, PartitionValue{Column: col, Value: val, Valid: true})
	}
	return out, nil
}

// PartitionValue is one decoded path segment.
type PartitionValue struct {
	Column string
	Value  string
	Valid  bool
}
