package guard

import (
	"testing"
)

func TestEvaluateAnonymous(t *testing.T) {
	cases := []struct {
		path string
		want string // redirect target; empty means allow
	}{
		{"/", ""},
		{"/login", ""},
		{"/register", ""},
		{"/promo", ""},
		{"/profile", "/login"},
		{"/dashboard", "/login"},
		{"/courses/create", "/login"},
		{"/course/abc123", "/login"},
	}
	for _, tc := range cases {
		got := Evaluate(Input{HasToken: false, Path: tc.path})
		if got.Redirect != tc.want {
			t.Errorf("anonymous %s: redirect = %q, want %q", tc.path, got.Redirect, tc.want)
		}
	}
}

func TestEvaluateAuthenticatedOnPublicPaths(t *testing.T) {
	for _, path := range []string{"/", "/login", "/register", "/promo"} {
		got := Evaluate(Input{HasToken: true, Role: "student", Path: path})
		if got.Redirect != "/dashboard" {
			t.Errorf("authenticated %s: redirect = %q, want /dashboard", path, got.Redirect)
		}
	}
}

func TestEvaluateDashboardFanOut(t *testing.T) {
	cases := []struct {
		role string
		want string
	}{
		{"creator", "/dashboard/creator"},
		{"student", "/dashboard/student"},
		{"", ""},        // unknown role falls through
		{"admin", ""},   // unrecognized value falls through
	}
	for _, tc := range cases {
		got := Evaluate(Input{HasToken: true, Role: tc.role, Path: "/dashboard"})
		if got.Redirect != tc.want {
			t.Errorf("role %q on /dashboard: redirect = %q, want %q", tc.role, got.Redirect, tc.want)
		}
	}
}

func TestEvaluateRoleRules(t *testing.T) {
	cases := []struct {
		role string
		path string
		want string
	}{
		// Creator surfaces
		{"creator", "/courses/create", ""},
		{"creator", "/courses/manage", ""},
		{"creator", "/courses/manage/42", ""},
		{"creator", "/videos/upload", ""},
		{"creator", "/dashboard/creator", ""},
		{"student", "/courses/create", "/dashboard/student"},
		{"student", "/courses/manage", "/dashboard/student"},
		{"student", "/videos/upload", "/dashboard/student"},
		{"student", "/dashboard/creator", "/dashboard/student"},
		// Student surfaces
		{"student", "/courses/enrolled", ""},
		{"student", "/checkout", ""},
		{"student", "/dashboard/student", ""},
		{"creator", "/courses/enrolled", "/dashboard/creator"},
		{"creator", "/checkout", "/dashboard/creator"},
		{"creator", "/dashboard/student", "/dashboard/creator"},
		// Ungated paths
		{"student", "/profile", ""},
		{"creator", "/course/abc123", ""},
		{"student", "/messages", ""},
	}
	for _, tc := range cases {
		got := Evaluate(Input{HasToken: true, Role: tc.role, Path: tc.path})
		if got.Redirect != tc.want {
			t.Errorf("role %s path %s: redirect = %q, want %q", tc.role, tc.path, got.Redirect, tc.want)
		}
	}
}

func TestEvaluateTotality(t *testing.T) {
	// The full cross product yields exactly one outcome per input and never panics.
	tokens := []bool{true, false}
	roles := []string{"creator", "student", ""}
	paths := []string{
		"/", "/login", "/register", "/promo", "/dashboard",
		"/dashboard/creator", "/dashboard/student",
		"/courses/create", "/courses/manage", "/videos/upload",
		"/courses/enrolled", "/checkout",
		"/course/abc123", "/profile", "",
	}
	for _, hasToken := range tokens {
		for _, role := range roles {
			for _, path := range paths {
				d := Evaluate(Input{HasToken: hasToken, Role: role, Path: path})
				if d.Redirect != "" && d.Allow() {
					t.Fatalf("inconsistent decision for %v/%q/%q", hasToken, role, path)
				}
			}
		}
	}
}

func TestSafeDefaultEmbedsCourseID(t *testing.T) {
	got := Evaluate(Input{HasToken: true, Role: "student", Path: "/course/abc123/manage/videos/upload"})
	// Not a gated prefix, so it passes; but a gated prefix embedding a course id
	// must land on the course detail page.
	if got.Redirect != "" {
		t.Fatalf("ungated course subpath redirected to %q", got.Redirect)
	}
	got = Evaluate(Input{HasToken: true, Role: "student", Path: "/courses/manage/course/abc123"})
	if got.Redirect != "/course/abc123" {
		t.Fatalf("redirect = %q, want /course/abc123", got.Redirect)
	}
}

func TestCourseIDExtraction(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"/course/abc123", "abc123"},
		{"/course/abc123/edit", "abc123"},
		{"/courses/manage", ""},
		{"/course/", ""},
	}
	for _, tc := range cases {
		if got := courseID(tc.path); got != tc.want {
			t.Errorf("courseID(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestSkipMatcher(t *testing.T) {
	skipped := []string{
		"/api/videos/v1/proxy", "/auth/login", "/ws/uploads", "/health",
		"/static/app.js", "/assets/logo.svg", "/favicon.ico", "/images/banner.PNG",
	}
	for _, path := range skipped {
		if !Skip(path) {
			t.Errorf("expected matcher to skip %s", path)
		}
	}
	evaluated := []string{"/", "/login", "/dashboard", "/courses/create", "/profile"}
	for _, path := range evaluated {
		if Skip(path) {
			t.Errorf("matcher must not skip %s", path)
		}
	}
}
