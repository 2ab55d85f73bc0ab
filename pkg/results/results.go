package results

// OperationResult carries either a success payload or a domain failure.
// Infrastructure errors travel separately as a plain error.
type OperationResult[S any, F any] struct {
	Success *S
	Failure *F
}

// SuccessResult wraps v as a successful result.
func SuccessResult[S any, F any](v S) OperationResult[S, F] {
	return OperationResult[S, F]{Success: &v}
}

// FailureResult wraps f as a failed result.
func FailureResult[S any, F any](f F) OperationResult[S, F] {
	return OperationResult[S, F]{Failure: &f}
}

func (r OperationResult[S, F]) IsSuccess() bool { return r.Success != nil }

func (r OperationResult[S, F]) IsFailure() bool { return r.Failure != nil }

// Map converts the success payload, keeping any failure.
func Map[S any, T any, F any](r OperationResult[S, F], fn func(S) T) OperationResult[T, F] {
	if r.Failure != nil {
		return OperationResult[T, F]{Failure: r.Failure}
	}
	if r.Success == nil {
		return OperationResult[T, F]{}
	}
	return SuccessResult[T, F](fn(*r.Success))
}
