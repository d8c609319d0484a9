package clientip

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestResolveClientIP(t *testing.T) {
	tests := []struct {
		name       string
		headers    HeaderValues
		exclusions []string
		fallback   string
		want       string
		wantOK     bool
	}{
		{
			name:    "no headers no fallback",
			headers: HeaderMap{},
		},
		{
			name:    "nil headers no fallback",
			headers: nil,
		},
		{
			name:     "fallback only",
			headers:  HeaderMap{},
			fallback: "192.168.1.1",
			want:     "192.168.1.1",
			wantOK:   true,
		},
		{
			name:     "X-Cluster-Client-IP alone",
			headers:  HeaderMap{"X-Cluster-Client-IP": "192.168.1.2"},
			fallback: "192.168.1.1",
			want:     "192.168.1.2",
			wantOK:   true,
		},
		{
			name:     "X-Forwarded-For alone",
			headers:  HeaderMap{"X-Forwarded-For": "192.168.1.2"},
			fallback: "192.168.1.1",
			want:     "192.168.1.2",
			wantOK:   true,
		},
		{
			name:     "Client-IP alone",
			headers:  HeaderMap{"Client-IP": "192.168.1.2"},
			fallback: "192.168.1.1",
			want:     "192.168.1.2",
			wantOK:   true,
		},
		{
			name:     "X-Client-IP alone",
			headers:  HeaderMap{"X-Client-IP": "192.168.1.2"},
			fallback: "192.168.1.1",
			want:     "192.168.1.2",
			wantOK:   true,
		},
		{
			name: "earliest reserved candidate wins",
			headers: HeaderMap{
				"X-Cluster-Client-IP": "192.168.1.2",
				"X-Forwarded-For":     "192.168.1.3",
			},
			fallback: "192.168.1.1",
			want:     "192.168.1.2",
			wantOK:   true,
		},
		{
			name: "excluded token is skipped",
			headers: HeaderMap{
				"X-Cluster-Client-IP": "192.168.1.2",
				"X-Forwarded-For":     "192.168.1.3",
			},
			exclusions: []string{"192.168.1.2"},
			fallback:   "192.168.1.1",
			want:       "192.168.1.3",
			wantOK:     true,
		},
		{
			name: "public in lower priority header beats reserved in higher",
			headers: HeaderMap{
				"X-Cluster-Client-IP": "10.0.0.1",
				"X-Forwarded-For":     "8.8.8.8",
			},
			want:   "8.8.8.8",
			wantOK: true,
		},
		{
			name: "higher priority header wins between public addresses",
			headers: HeaderMap{
				"X-Client-IP":         "9.9.9.9",
				"Client-IP":           "8.8.4.4",
				"X-Forwarded-For":     "8.8.8.8",
				"X-Cluster-Client-IP": "1.1.1.1",
			},
			want:   "1.1.1.1",
			wantOK: true,
		},
		{
			name: "Client-IP beats X-Client-IP",
			headers: HeaderMap{
				"X-Client-IP": "9.9.9.9",
				"Client-IP":   "8.8.4.4",
			},
			want:   "8.8.4.4",
			wantOK: true,
		},
		{
			name:    "first public token in a list",
			headers: HeaderMap{"X-Forwarded-For": "10.0.0.1,8.8.8.8,9.9.9.9"},
			want:    "8.8.8.8",
			wantOK:  true,
		},
		{
			name:    "tokens are not trimmed",
			headers: HeaderMap{"X-Forwarded-For": "10.0.0.1, 8.8.8.8"},
			want:    "10.0.0.1",
			wantOK:  true,
		},
		{
			name:    "invalid tokens are skipped",
			headers: HeaderMap{"X-Forwarded-For": "unknown,,8.8.8.8"},
			want:    "8.8.8.8",
			wantOK:  true,
		},
		{
			name:       "excluded public token falls through",
			headers:    HeaderMap{"X-Forwarded-For": "8.8.8.8,9.9.9.9"},
			exclusions: []string{"8.8.8.8"},
			want:       "9.9.9.9",
			wantOK:     true,
		},
		{
			name:       "all tokens excluded",
			headers:    HeaderMap{"X-Forwarded-For": "8.8.8.8,10.0.0.1"},
			exclusions: []string{"8.8.8.8", "10.0.0.1"},
			fallback:   "203.0.113.9",
			want:       "203.0.113.9",
			wantOK:     true,
		},
		{
			name:     "unspecified IPv4 is invalid, not reserved",
			headers:  HeaderMap{"X-Forwarded-For": "0.0.0.0"},
			fallback: "192.0.2.10",
			want:     "192.0.2.10",
			wantOK:   true,
		},
		{
			name:     "unspecified IPv6 is invalid, not reserved",
			headers:  HeaderMap{"X-Forwarded-For": "::"},
			fallback: "192.0.2.10",
			want:     "192.0.2.10",
			wantOK:   true,
		},
		{
			name:     "only invalid tokens",
			headers:  HeaderMap{"X-Forwarded-For": "unknown,1.2.3,hello"},
			fallback: "192.0.2.10",
			want:     "192.0.2.10",
			wantOK:   true,
		},
		{
			name:     "fallback is returned unvalidated",
			headers:  HeaderMap{},
			fallback: "unix-socket",
			want:     "unix-socket",
			wantOK:   true,
		},
		{
			name:       "exclusion is case sensitive",
			headers:    HeaderMap{"X-Forwarded-For": "FE80::1"},
			exclusions: []string{"fe80::1"},
			want:       "FE80::1",
			wantOK:     true,
		},
		{
			name:       "exclusion does not unmap IPv4-mapped addresses",
			headers:    HeaderMap{"X-Forwarded-For": "::ffff:8.8.8.8"},
			exclusions: []string{"8.8.8.8"},
			want:       "::ffff:8.8.8.8",
			wantOK:     true,
		},
		{
			name:    "IPv6 public token",
			headers: HeaderMap{"X-Forwarded-For": "fd00::1,2606:4700:4700::1111"},
			want:    "2606:4700:4700::1111",
			wantOK:  true,
		},
		{
			name:    "CIDR token is invalid",
			headers: HeaderMap{"X-Forwarded-For": "8.8.8.0/24,10.0.0.1"},
			want:    "10.0.0.1",
			wantOK:  true,
		},
		{
			name:    "header name lookup is case insensitive",
			headers: HeaderMap{"x-forwarded-for": "8.8.8.8"},
			want:    "8.8.8.8",
			wantOK:  true,
		},
		{
			name:     "unrelated headers are ignored",
			headers:  HeaderMap{"X-Real-IP": "8.8.8.8", "Forwarded": "for=9.9.9.9"},
			fallback: "192.0.2.10",
			want:     "192.0.2.10",
			wantOK:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveClientIP(tt.headers, tt.exclusions, tt.fallback)
			if got != tt.want || ok != tt.wantOK {
				t.Fatalf("ResolveClientIP() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestResolveClientIP_HTTPHeader(t *testing.T) {
	headers := make(http.Header)
	headers.Add("X-Forwarded-For", "10.0.0.1")
	headers.Add("X-Forwarded-For", "8.8.8.8")
	headers.Set("Client-IP", "1.1.1.1")

	got, ok := ResolveClientIP(headers, nil, "192.0.2.10")
	if !ok || got != "8.8.8.8" {
		t.Fatalf("ResolveClientIP() = (%q, %v), want (%q, true)", got, ok, "8.8.8.8")
	}
}

func TestResolveClientIP_Idempotent(t *testing.T) {
	headers := HeaderMap{
		"X-Cluster-Client-IP": "10.0.0.1",
		"X-Forwarded-For":     "unknown,172.16.0.4,8.8.8.8",
	}

	first, _ := ResolveClientIP(headers, []string{"172.16.0.4"}, "192.0.2.1")
	for range 10 {
		got, _ := ResolveClientIP(headers, []string{"172.16.0.4"}, "192.0.2.1")
		if got != first {
			t.Fatalf("ResolveClientIP() = %q, want %q on every call", got, first)
		}
	}
}

func TestResolveClientIP_ResultIsTokenOrFallback(t *testing.T) {
	headers := HeaderMap{
		"X-Cluster-Client-IP": "junk,10.1.1.1",
		"X-Forwarded-For":     "192.168.0.7,2001:db8::1",
		"Client-IP":           "203.0.113.5",
		"X-Client-IP":         "100.64.1.1",
	}
	fallback := "198.51.100.99"

	got, ok := ResolveClientIP(headers, nil, fallback)
	if !ok {
		t.Fatal("ResolveClientIP() ok = false, want true")
	}

	candidates := map[string]bool{fallback: true}
	for _, value := range headers {
		for _, token := range strings.Split(value, ",") {
			candidates[token] = true
		}
	}
	if !candidates[got] {
		t.Fatalf("ResolveClientIP() = %q, not a header token or the fallback", got)
	}
	if IsValidIP(got) && !IsReservedIP(got) {
		t.Fatalf("ResolveClientIP() = %q, want a reserved candidate when no public token exists", got)
	}
	if got != "10.1.1.1" {
		t.Fatalf("ResolveClientIP() = %q, want earliest reserved token %q", got, "10.1.1.1")
	}
}

func TestResolver_Resolve(t *testing.T) {
	resolver := mustNewResolver(t)

	tests := []struct {
		name     string
		headers  HeaderValues
		fallback string
		want     Resolution
	}{
		{
			name:     "public header token",
			headers:  HeaderMap{"X-Forwarded-For": "10.0.0.1,8.8.8.8"},
			fallback: "192.0.2.1",
			want:     Resolution{IP: "8.8.8.8", Source: SourceXForwardedFor},
		},
		{
			name: "deferred reserved token",
			headers: HeaderMap{
				"X-Cluster-Client-IP": "10.0.0.1",
				"X-Forwarded-For":     "192.168.0.1",
			},
			fallback: "192.0.2.1",
			want:     Resolution{IP: "10.0.0.1", Source: SourceXClusterClientIP, Deferred: true},
		},
		{
			name:     "fallback",
			headers:  HeaderMap{"X-Client-IP": "garbage"},
			fallback: "192.0.2.1",
			want:     Resolution{IP: "192.0.2.1", Source: SourceFallback},
		},
		{
			name:    "unresolved",
			headers: HeaderMap{"X-Client-IP": "garbage"},
			want:    Resolution{},
		},
		{
			name:     "Client-IP source",
			headers:  HeaderMap{"Client-IP": "8.8.4.4"},
			fallback: "192.0.2.1",
			want:     Resolution{IP: "8.8.4.4", Source: SourceClientIP},
		},
		{
			name:     "X-Client-IP source",
			headers:  HeaderMap{"X-Client-IP": "8.8.4.4"},
			fallback: "192.0.2.1",
			want:     Resolution{IP: "8.8.4.4", Source: SourceXClientIP},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolver.Resolve(tt.headers, tt.fallback)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("Resolve() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolver_ResolveContext_NilContext(t *testing.T) {
	resolver := mustNewResolver(t)

	//nolint:staticcheck // nil context is accepted on purpose
	got := resolver.ResolveContext(nil, HeaderMap{"X-Forwarded-For": "8.8.8.8"}, "")
	if got.IP != "8.8.8.8" {
		t.Fatalf("ResolveContext(nil) IP = %q, want %q", got.IP, "8.8.8.8")
	}
}

func TestResolver_ExcludeProxies(t *testing.T) {
	resolver := mustNewResolver(t, ExcludeProxies("8.8.8.8"), ExcludeProxies("9.9.9.9"))

	got := resolver.Resolve(HeaderMap{"X-Forwarded-For": "8.8.8.8,9.9.9.9,1.1.1.1"}, "")
	if got.IP != "1.1.1.1" {
		t.Fatalf("Resolve() IP = %q, want %q", got.IP, "1.1.1.1")
	}
}

func TestResolver_ExcludeProxyPrefixes(t *testing.T) {
	resolver := mustNewResolver(t,
		ExcludeProxyPrefixes(mustParseCIDRs(t, "10.0.0.0/8", "2606:4700::/32")...),
	)

	tests := []struct {
		name  string
		value string
		want  Resolution
	}{
		{
			name:  "prefix member is excluded",
			value: "10.1.2.3,192.168.0.9",
			want:  Resolution{IP: "192.168.0.9", Source: SourceXForwardedFor, Deferred: true},
		},
		{
			name:  "IPv4-mapped prefix member is excluded",
			value: "::ffff:10.1.2.3,8.8.8.8",
			want:  Resolution{IP: "8.8.8.8", Source: SourceXForwardedFor},
		},
		{
			name:  "IPv6 prefix member is excluded",
			value: "2606:4700:4700::1111,8.8.4.4",
			want:  Resolution{IP: "8.8.4.4", Source: SourceXForwardedFor},
		},
		{
			name:  "address outside prefix is kept",
			value: "11.0.0.1",
			want:  Resolution{IP: "11.0.0.1", Source: SourceXForwardedFor},
		},
		{
			name:  "everything excluded",
			value: "10.0.0.1,10.0.0.2",
			want:  Resolution{IP: "192.0.2.1", Source: SourceFallback},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolver.Resolve(HeaderMap{"X-Forwarded-For": tt.value}, "192.0.2.1")
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("Resolve() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolver_CustomHeaderPriority(t *testing.T) {
	resolver := mustNewResolver(t, HeaderPriority("X-Real-IP", "X-Forwarded-For"))

	headers := HeaderMap{
		"X-Cluster-Client-IP": "1.1.1.1",
		"X-Forwarded-For":     "8.8.8.8",
		"X-Real-IP":           "9.9.9.9",
	}

	want := Resolution{IP: "9.9.9.9", Source: "x_real_ip"}
	if diff := cmp.Diff(want, resolver.Resolve(headers, "")); diff != "" {
		t.Fatalf("Resolve() mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"X-Real-IP", "X-Forwarded-For"}, resolver.HeaderPriority()); diff != "" {
		t.Fatalf("HeaderPriority() mismatch (-want +got):\n%s", diff)
	}
}

func TestResolver_HeaderPriorityIsCopied(t *testing.T) {
	resolver := mustNewResolver(t)

	priority := resolver.HeaderPriority()
	priority[0] = "X-Tampered"

	if got := resolver.HeaderPriority()[0]; got != HeaderXClusterClientIP {
		t.Fatalf("HeaderPriority()[0] = %q, want %q", got, HeaderXClusterClientIP)
	}
}

func TestResolver_ResolveRequest(t *testing.T) {
	resolver := mustNewResolver(t)

	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       Resolution
	}{
		{
			name:       "IPv4 remote address with port",
			remoteAddr: "192.168.1.1:5555",
			want:       Resolution{IP: "192.168.1.1", Source: SourceFallback},
		},
		{
			name:       "IPv6 remote address with port",
			remoteAddr: "[2001:db8::1]:443",
			want:       Resolution{IP: "2001:db8::1", Source: SourceFallback},
		},
		{
			name:       "remote address without port",
			remoteAddr: "192.168.1.1",
			want:       Resolution{IP: "192.168.1.1", Source: SourceFallback},
		},
		{
			name:       "header wins over remote address",
			remoteAddr: "10.0.0.5:1234",
			headers:    map[string]string{"X-Forwarded-For": "8.8.8.8"},
			want:       Resolution{IP: "8.8.8.8", Source: SourceXForwardedFor},
		},
		{
			name:       "reserved header wins over remote address",
			remoteAddr: "8.8.4.4:1234",
			headers:    map[string]string{"X-Cluster-Client-IP": "10.1.1.1"},
			want:       Resolution{IP: "10.1.1.1", Source: SourceXClusterClientIP, Deferred: true},
		},
		{
			name: "no remote address",
			want: Resolution{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newTestRequest(tt.remoteAddr, "/")
			for key, value := range tt.headers {
				req.Header.Set(key, value)
			}

			got := resolver.ResolveRequest(req)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("ResolveRequest() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolver_ResolveRequest_NilRequest(t *testing.T) {
	resolver := mustNewResolver(t)

	if got := resolver.ResolveRequest(nil); got.OK() {
		t.Fatalf("ResolveRequest(nil) = %+v, want unresolved", got)
	}
}

func TestResolver_ResolveFrom(t *testing.T) {
	resolver := mustNewResolver(t)

	tests := []struct {
		name  string
		input RequestInput
		want  Resolution
	}{
		{
			name: "header values func",
			input: RequestInput{
				RemoteAddr: "10.0.0.1:8080",
				Path:       "/login",
				Headers: HeaderValuesFunc(func(name string) []string {
					if name == "X-Forwarded-For" {
						return []string{"8.8.8.8"}
					}
					return nil
				}),
			},
			want: Resolution{IP: "8.8.8.8", Source: SourceXForwardedFor},
		},
		{
			name: "nil headers",
			input: RequestInput{
				RemoteAddr: "[::1]:8080",
			},
			want: Resolution{IP: "::1", Source: SourceFallback},
		},
		{
			name: "nil header func",
			input: RequestInput{
				RemoteAddr: "192.0.2.7:1",
				Headers:    HeaderValuesFunc(nil),
			},
			want: Resolution{IP: "192.0.2.7", Source: SourceFallback},
		},
		{
			name: "header map",
			input: RequestInput{
				Context:    context.Background(),
				RemoteAddr: "192.0.2.7:1",
				Headers:    HeaderMap{"client-ip": "9.9.9.9"},
			},
			want: Resolution{IP: "9.9.9.9", Source: SourceClientIP},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolver.ResolveFrom(tt.input)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("ResolveFrom() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolver_ResolveFrom_MatchesResolveRequest(t *testing.T) {
	resolver := mustNewResolver(t, ExcludeProxies("10.0.0.9"))

	req := newTestRequest("203.0.113.4:9000", "/path")
	req.Header.Set("X-Forwarded-For", "10.0.0.9,172.16.2.2")
	req.Header.Set("X-Client-IP", "8.8.8.8")

	fromRequest := resolver.ResolveRequest(req)
	fromInput := resolver.ResolveFrom(RequestInput{
		Context:    req.Context(),
		RemoteAddr: req.RemoteAddr,
		Path:       req.URL.Path,
		Headers:    req.Header,
	})

	if diff := cmp.Diff(fromRequest, fromInput); diff != "" {
		t.Fatalf("ResolveFrom() differs from ResolveRequest() (-request +input):\n%s", diff)
	}
}

func TestResolver_ConcurrentUse(t *testing.T) {
	resolver := mustNewResolver(t, ExcludeProxies("10.0.0.1"))
	headers := HeaderMap{"X-Forwarded-For": "10.0.0.1,8.8.8.8"}

	done := make(chan string)
	for range 8 {
		go func() {
			done <- resolver.Resolve(headers, "").IP
		}()
	}

	for range 8 {
		if got := <-done; got != "8.8.8.8" {
			t.Fatalf("Resolve() IP = %q, want %q", got, "8.8.8.8")
		}
	}
}
