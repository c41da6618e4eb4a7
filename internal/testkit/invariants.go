// Package testkit holds shared invariant checks used by tests across packages.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"cinder/internal/ast"
	"cinder/internal/source"
)

// CheckSpanInvariants runs a minimal set of span invariants on an expression
// tree rooted at root:
// 1) the root span is non-empty and within file content bounds
// 2) every reachable expression span is non-empty and points at the same file
// 3) the root span covers the union of all reachable spans
func CheckSpanInvariants(exprs *ast.Exprs, root ast.ExprID, sf *source.File) error {
	if exprs == nil || sf == nil {
		return fmt.Errorf("nil exprs or file")
	}
	rootSpan := exprs.Span(root)
	if rootSpan.End <= rootSpan.Start {
		return fmt.Errorf("root span is empty: %v", rootSpan)
	}
	if rootSpan.File != sf.ID {
		return fmt.Errorf("root span points to different file id: got=%d want=%d", rootSpan.File, sf.ID)
	}
	lenContent, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	if rootSpan.End > lenContent {
		return fmt.Errorf("root span end beyond content: %d > %d", rootSpan.End, lenContent)
	}

	// 2) reachable spans sane; 3) root covers union
	var union source.Span
	var haveChild bool
	var walkErr error
	exprs.Walk(root, func(id ast.ExprID) bool {
		if walkErr != nil {
			return false
		}
		sp := exprs.Span(id)
		if sp.End <= sp.Start {
			walkErr = fmt.Errorf("empty span on expr %d: %v", id, sp)
			return false
		}
		if sp.File != sf.ID {
			walkErr = fmt.Errorf("expr %d span file mismatch: got=%d want=%d", id, sp.File, sf.ID)
			return false
		}
		if id == root {
			return true
		}
		if !haveChild {
			union = sp
			haveChild = true
		} else {
			union = union.Cover(sp)
		}
		return true
	})
	if walkErr != nil {
		return walkErr
	}

	if haveChild && !rootSpan.Contains(union) {
		return fmt.Errorf("root span %v does not cover union of children %v", rootSpan, union)
	}
	return nil
}
