package clientip

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestHeaderMap_Values(t *testing.T) {
	tests := []struct {
		name   string
		m      HeaderMap
		lookup string
		want   []string
	}{
		{
			name:   "exact match",
			m:      HeaderMap{"X-Forwarded-For": "8.8.8.8"},
			lookup: "X-Forwarded-For",
			want:   []string{"8.8.8.8"},
		},
		{
			name:   "case-insensitive match",
			m:      HeaderMap{"X-Cluster-Client-IP": "1.1.1.1"},
			lookup: "X-Cluster-Client-Ip",
			want:   []string{"1.1.1.1"},
		},
		{
			name:   "exact match beats folded matches",
			m:      HeaderMap{"X-Forwarded-For": "8.8.8.8", "x-forwarded-for": "9.9.9.9"},
			lookup: "x-forwarded-for",
			want:   []string{"9.9.9.9"},
		},
		{
			name:   "folded matches in sorted key order",
			m:      HeaderMap{"x-forwarded-for": "9.9.9.9", "X-FORWARDED-FOR": "8.8.8.8"},
			lookup: "X-Forwarded-For",
			want:   []string{"8.8.8.8", "9.9.9.9"},
		},
		{
			name:   "missing",
			m:      HeaderMap{"X-Real-IP": "8.8.8.8"},
			lookup: "X-Forwarded-For",
			want:   nil,
		},
		{
			name:   "nil map",
			m:      nil,
			lookup: "X-Forwarded-For",
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.m.Values(tt.lookup)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("Values(%q) mismatch (-want +got):\n%s", tt.lookup, diff)
			}
		})
	}
}

func TestDefaultHeaderPriority(t *testing.T) {
	want := []string{"X-Cluster-Client-IP", "X-Forwarded-For", "Client-IP", "X-Client-IP"}
	if diff := cmp.Diff(want, DefaultHeaderPriority()); diff != "" {
		t.Fatalf("DefaultHeaderPriority() mismatch (-want +got):\n%s", diff)
	}

	got := DefaultHeaderPriority()
	got[0] = "X-Tampered"
	if DefaultHeaderPriority()[0] != HeaderXClusterClientIP {
		t.Fatal("DefaultHeaderPriority() returned shared backing storage")
	}
}

func TestNewHeaderSources(t *testing.T) {
	got := newHeaderSources([]string{"X-Cluster-Client-IP", " x-forwarded-for ", "Client-IP"})
	want := []headerSource{
		{key: "X-Cluster-Client-Ip", name: SourceXClusterClientIP},
		{key: "X-Forwarded-For", name: SourceXForwardedFor},
		{key: "Client-Ip", name: SourceClientIP},
	}

	if diff := cmp.Diff(want, got, cmp.AllowUnexported(headerSource{})); diff != "" {
		t.Fatalf("newHeaderSources() mismatch (-want +got):\n%s", diff)
	}
}

func TestCloneStrings(t *testing.T) {
	if got := cloneStrings(nil); got != nil {
		t.Fatalf("cloneStrings(nil) = %v, want nil", got)
	}

	original := []string{"a", "b"}
	cloned := cloneStrings(original)
	cloned[0] = "z"
	if original[0] != "a" {
		t.Fatal("cloneStrings() shares backing storage")
	}
}
