// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

package kagi

import (
	"context"
	"iter"
)

// SearchAll runs request as a search and then follows the paging
// information, yielding one Result per page until a page reports no
// next batch. Iteration stops at the first error, which is yielded.
func (c *Client) SearchAll(ctx context.Context, request Request) iter.Seq2[Result, error] {
	request.Kind = KindSearch
	return func(yield func(Result, error) bool) {
		for {
			result, err := c.RunOperation(ctx, request, nil)
			if err != nil {
				yield(Result{}, err)
				return
			}
			if !yield(result, nil) {
				return
			}
			next := result.Search.Info.NextBatch
			// A next batch that does not advance would page forever.
			if next <= 0 || next <= request.Search.Batch {
				return
			}
			request.Search.Batch = next
		}
	}
}
