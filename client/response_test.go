package client_test

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/aliucord/httpkit/client"
)

type payload struct {
	Name  string   `json:"name" validate:"required"`
	Email string   `json:"email" validate:"omitempty,email"`
	Tags  []string `json:"tags"`
}

func TestResponse_RequestErrorMessage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/empty":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"message":"Unknown Channel"}`)
		}
	}))
	defer ts.Close()

	tests := map[string]struct {
		path     string
		wantCode int
		wantMsg  string
		wantBody string
	}{
		"with body": {
			path:     "/missing",
			wantCode: http.StatusNotFound,
			wantMsg:  "404: Not Found (" + ts.URL + "/missing)\n{\"message\":\"Unknown Channel\"}",
			wantBody: `{"message":"Unknown Channel"}`,
		},
		"without body": {
			path:     "/empty",
			wantCode: http.StatusInternalServerError,
			wantMsg:  "500: Internal Server Error (" + ts.URL + "/empty)",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			req := newRequest(t, newClient(t), ts.URL+tc.path, http.MethodGet)

			resp, err := req.Execute()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if resp.OK() {
				t.Fatal("expected OK to be false")
			}

			_, err = resp.Text()

			var reqErr *client.RequestError
			if !errors.As(err, &reqErr) {
				t.Fatalf("expected *client.RequestError, got %T: %v", err, err)
			}
			if !errors.Is(err, client.ErrUnexpectedStatusCode) {
				t.Errorf("expected ErrUnexpectedStatusCode, got %v", err)
			}
			if reqErr.StatusCode != tc.wantCode {
				t.Errorf("expected status %d, got %d", tc.wantCode, reqErr.StatusCode)
			}
			if reqErr.Request != req || reqErr.Response != resp {
				t.Error("expected error to reference the request and response")
			}
			if got := err.Error(); got != tc.wantMsg {
				t.Errorf("expected message %q, got %q", tc.wantMsg, got)
			}
			if got := reqErr.Body(); got != tc.wantBody {
				t.Errorf("expected body %q, got %q", tc.wantBody, got)
			}
		})
	}
}

func TestResponse_AssertOKReturnsSameError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, "bad")
	}))
	defer ts.Close()

	resp, err := newRequest(t, newClient(t), ts.URL, http.MethodGet).Execute()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first := resp.AssertOK()
	second := resp.AssertOK()
	if first == nil || first != second {
		t.Fatalf("expected the same non-nil error twice, got %v and %v", first, second)
	}

	if _, err := resp.Bytes(); err != first {
		t.Errorf("expected Bytes to return the same error, got %v", err)
	}
}

func TestResponse_ErrorSurvivesClose(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = io.WriteString(w, "short and stout")
	}))
	defer ts.Close()

	req := newRequest(t, newClient(t), ts.URL, http.MethodGet)
	resp, err := req.Execute()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertErr := resp.AssertOK()
	if err := resp.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}

	if !strings.HasSuffix(assertErr.Error(), "\nshort and stout") {
		t.Errorf("expected message to keep the error body after close, got %q", assertErr.Error())
	}
}

func TestResponse_AssertOKConcurrentWithClose(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, "Unknown Message")
	}))
	defer ts.Close()

	for range 20 {
		resp, err := newRequest(t, newClient(t), ts.URL, http.MethodGet).Execute()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var (
			wg        sync.WaitGroup
			assertErr error
		)
		wg.Go(func() { assertErr = resp.AssertOK() })
		wg.Go(func() { _ = resp.Close() })
		wg.Wait()

		if assertErr == nil {
			t.Fatal("expected a RequestError, got nil")
		}
		if msg := assertErr.Error(); !strings.HasPrefix(msg, "404: ") {
			t.Errorf("unexpected message %q", msg)
		}
		if again := resp.AssertOK(); again != assertErr {
			t.Errorf("expected the same error value on every call")
		}
	}
}

func TestResponse_AuthFailure(t *testing.T) {
	tests := map[string]struct {
		status   int
		wantAuth bool
	}{
		"unauthorized": {status: http.StatusUnauthorized, wantAuth: true},
		"forbidden":    {status: http.StatusForbidden, wantAuth: true},
		"server error": {status: http.StatusBadGateway},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer ts.Close()

			resp, err := newRequest(t, newClient(t), ts.URL, http.MethodGet).Execute()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			err = resp.AssertOK()
			if got := errors.Is(err, client.ErrAuthFailure); got != tc.wantAuth {
				t.Errorf("errors.Is(err, ErrAuthFailure) = %v, want %v", got, tc.wantAuth)
			}
		})
	}
}

func TestResponse_BodyConsumedOnce(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "once")
	}))
	defer ts.Close()

	resp, err := newRequest(t, newClient(t), ts.URL, http.MethodGet).Execute()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text, err := resp.Text()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "once" {
		t.Errorf("expected %q, got %q", "once", text)
	}

	reads := map[string]func() error{
		"text":   func() error { _, err := resp.Text(); return err },
		"bytes":  func() error { _, err := resp.Bytes(); return err },
		"stream": func() error { _, err := resp.Stream(); return err },
		"json":   func() error { var v any; return resp.JSON(&v) },
		"pipe":   func() error { return resp.Pipe(io.Discard) },
		"save":   func() error { return resp.SaveToFile(t.TempDir() + "/x") },
	}
	for name, read := range reads {
		t.Run(name, func(t *testing.T) {
			err := read()
			if !errors.Is(err, client.ErrBodyConsumed) {
				t.Errorf("expected ErrBodyConsumed, got %v", err)
			}
			if !errors.Is(err, client.ErrUsage) {
				t.Errorf("expected ErrBodyConsumed to match ErrUsage, got %v", err)
			}
		})
	}
}

func TestResponse_TextReplacesInvalidUTF8(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte{'a', 0xff, 'b'})
	}))
	defer ts.Close()

	resp, err := newRequest(t, newClient(t), ts.URL, http.MethodGet).Execute()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text, err := resp.Text()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "a\uFFFDb"; text != want {
		t.Errorf("expected %q, got %q", want, text)
	}
}

func TestResponse_JSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", client.ContentTypeJSON)
		_, _ = io.Copy(w, r.Body)
	}))
	defer ts.Close()

	tests := map[string]struct {
		body    string
		opts    []client.DecodeOption
		want    payload
		wantErr error
		fields  map[string]string
	}{
		"round trip": {
			body: `{"name":"alice","email":"a@example.com","tags":["x","y"]}`,
			want: payload{Name: "alice", Email: "a@example.com", Tags: []string{"x", "y"}},
		},
		"malformed": {
			body:    `{"name":`,
			wantErr: client.ErrDecode,
		},
		"type mismatch": {
			body:    `{"name":42}`,
			wantErr: client.ErrDecode,
		},
		"trailing garbage": {
			body:    `{"name":"x"} not json`,
			wantErr: client.ErrDecode,
		},
		"second value": {
			body:    `{"name":"x"} {"name":"y"}`,
			wantErr: client.ErrDecode,
		},
		"trailing whitespace": {
			body: "{\"name\":\"x\"}\n\t ",
			want: payload{Name: "x"},
		},
		"unknown field allowed": {
			body: `{"name":"bob","extra":true}`,
			want: payload{Name: "bob"},
		},
		"unknown field rejected": {
			body:    `{"name":"bob","extra":true}`,
			opts:    []client.DecodeOption{client.WithDisallowUnknownFields()},
			wantErr: client.ErrDecode,
		},
		"validation passes": {
			body: `{"name":"carol"}`,
			opts: []client.DecodeOption{client.WithValidation()},
			want: payload{Name: "carol"},
		},
		"validation fails": {
			body:    `{"email":"not-an-email"}`,
			opts:    []client.DecodeOption{client.WithValidation()},
			wantErr: client.ErrDecode,
			fields: map[string]string{
				"name":  "This field is required",
				"email": "email must be a valid email address",
			},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			req := newRequest(t, newClient(t), ts.URL, http.MethodPost)

			resp, err := req.ExecuteWithBody([]byte(tc.body))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			var got payload
			err = resp.JSON(&got, tc.opts...)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}

				if tc.fields != nil {
					var fe client.FieldErrors
					if !errors.As(err, &fe) {
						t.Fatalf("expected FieldErrors, got %T", err)
					}
					if diff := cmp.Diff(tc.fields, fe.Fields()); diff != "" {
						t.Errorf("field errors mismatch (-want +got):\n%s", diff)
					}
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("payload mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResponse_JSONNumber(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"id":1234567890123456789}`)
	}))
	defer ts.Close()

	resp, err := newRequest(t, newClient(t), ts.URL, http.MethodGet).Execute()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got map[string]any
	if err := resp.JSON(&got, client.WithJSONNumber()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if n, ok := got["id"].(json.Number); !ok || n.String() != "1234567890123456789" {
		t.Errorf("expected exact json.Number, got %#v", got["id"])
	}
}

func TestResponse_StreamAndPipe(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Test", "yes")
		_, _ = io.WriteString(w, "streamed body")
	}))
	defer ts.Close()

	c := newClient(t)

	resp, err := newRequest(t, c, ts.URL, http.MethodGet).Execute()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Header.Get("X-Test") != "yes" {
		t.Errorf("expected response header to be exposed, got %v", resp.Header)
	}
	if resp.Status != "OK" {
		t.Errorf("expected reason phrase %q, got %q", "OK", resp.Status)
	}

	rc, err := resp.Stream()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil {
		t.Fatalf("reading stream: %v", err)
	}
	if string(b) != "streamed body" {
		t.Errorf("expected %q, got %q", "streamed body", b)
	}

	resp, err = newRequest(t, c, ts.URL, http.MethodGet).Execute()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var sb strings.Builder
	if err := resp.Pipe(&sb); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sb.String() != "streamed body" {
		t.Errorf("expected %q, got %q", "streamed body", sb.String())
	}
}

func TestValidate(t *testing.T) {
	if err := client.Validate(payload{Name: "ok"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := client.Validate(&payload{}); err == nil {
		t.Error("expected validation error for missing name")
	}
	if err := client.Validate(42); err != nil {
		t.Errorf("non-struct values should pass, got %v", err)
	}
}
