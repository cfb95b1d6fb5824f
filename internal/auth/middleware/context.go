package auth

import "context"

type subjectKey struct{}

// WithSubject stores the authenticated user id. For learners this is the
// learner id that owns assignments.
func WithSubject(ctx context.Context, sub string) context.Context {
	return context.WithValue(ctx, subjectKey{}, sub)
}

func SubjectFromContext(ctx context.Context) string {
	s, _ := ctx.Value(subjectKey{}).(string)
	return s
}
