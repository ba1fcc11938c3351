// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fingerprint derives stable cache keys from provider-scoped queries.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/meshintel/market-scout/pkg/types"
)

// Compute returns a hex-encoded SHA-256 fingerprint of a provider id and its
// query parameters. Two parameter maps that are equal after normalization
// yield the same fingerprint regardless of insertion order.
//
// Normalization rule: keys are sorted bytewise; keys and values are
// whitespace-trimmed with runs of inner whitespace collapsed to a single
// space; values are lower-cased. Pairs are joined as "key=value" lines,
// prefixed with the provider id.
func Compute(providerID string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(strings.TrimSpace(providerID))
	b.WriteByte('\n')
	for _, k := range keys {
		b.WriteString(strings.Join(strings.Fields(k), " "))
		b.WriteByte('=')
		b.WriteString(normalizeValue(params[k]))
		b.WriteByte('\n')
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// FromQuery fingerprints a constructed Query.
func FromQuery(q types.Query) string {
	return Compute(q.ProviderID, q.Params())
}

// normalizeValue lower-cases free text and collapses whitespace so that
// cosmetic variants of the same query share a fingerprint.
func normalizeValue(v string) string {
	return strings.ToLower(strings.Join(strings.Fields(v), " "))
}
