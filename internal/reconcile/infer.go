package reconcile

import "github.com/blocklab/prockit/internal/block"

// InferReturnType classifies a definition's return behavior from its body.
//
// The body is walked in depth-first pre-order. The first return statement
// encountered determines the outcome, with one exception: a return whose
// value slot holds a boolean-shaped expression is ambiguous (it could mark
// a boolean-returning procedure, or merely feed a boolean into a generic
// reporter), so it is classified tentatively and the walk continues.
//
//   - A later return with a non-boolean-shaped (or empty) value slot
//     classifies the whole definition REPORTER immediately.
//   - If every return seen was boolean-shaped, the definition is BOOLEAN.
//   - No return statement at all means STATEMENT.
//
// The asymmetry matters: a REPORTER classification is terminal, while a
// tentative BOOLEAN one can still be overridden by a later return.
//
// InferReturnType is a pure function of the body's shape: a definition with
// a missing or invalid body is STATEMENT, and reordering statements that
// are not returns never changes the result.
func InferReturnType(def *block.Block) block.ReturnType {
	if def == nil || def.Kind != block.KindDefinition || def.Body == nil {
		return block.ReturnStatement
	}

	list := def.Body.Descendants()
	sawBoolean := false
	for i, b := range list {
		if b.Kind != block.KindReturn {
			continue
		}
		// The node immediately following a return in traversal order is
		// its value input when one is attached.
		if i+1 < len(list) && isValueInput(b, list[i+1]) && list[i+1].Shape == block.ShapeBoolean {
			sawBoolean = true
			continue
		}
		return block.ReturnReporter
	}
	if sawBoolean {
		return block.ReturnBoolean
	}
	return block.ReturnStatement
}

// isValueInput reports whether candidate sits in one of ret's input sockets
// (as opposed to being the statement chained beneath it).
func isValueInput(ret, candidate *block.Block) bool {
	for _, in := range ret.Inputs {
		if in == candidate {
			return true
		}
	}
	return false
}
