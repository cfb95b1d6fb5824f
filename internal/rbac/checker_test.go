package rbac

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultPolicy(t *testing.T) {
	c := NewChecker(nil)

	assert.True(t, c.Has(RoleLearner, PermAssignmentSubmit))
	assert.True(t, c.Has(RoleLearner, PermAssignmentViewOwn))
	assert.False(t, c.Has(RoleLearner, PermExerciseCreate))
	assert.False(t, c.Has(RoleLearner, PermAssignmentViewAll))

	for _, p := range []string{PermExerciseCreate, PermExerciseDelete, PermAssignmentCreate, PermScoringView} {
		assert.True(t, c.Has(RoleAdmin, p), p)
	}
	assert.False(t, c.Has("guest", PermExerciseView))
}

func TestPrefixPatterns(t *testing.T) {
	c := NewChecker(map[string][]string{"reviewer": {"assignment:*"}})
	assert.True(t, c.Has("reviewer", PermAssignmentViewAll))
	assert.False(t, c.Has("reviewer", PermExerciseView))
	assert.True(t, c.Any("reviewer", PermExerciseView, PermAssignmentSubmit))
	assert.False(t, c.Any("reviewer"))
}

func TestRequire(t *testing.T) {
	h := Require(PermExerciseCreate)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		role string
		want int
	}{
		{"", http.StatusForbidden},
		{RoleLearner, http.StatusForbidden},
		{RoleAdmin, http.StatusNoContent},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/exercises", nil)
		req = req.WithContext(WithRole(context.Background(), tc.role))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, tc.want, rec.Code, "role %q", tc.role)
		if tc.want == http.StatusForbidden {
			assert.JSONEq(t, `{"error":{"message":"forbidden","code":"forbidden"}}`, rec.Body.String())
		}
	}
}
