package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/idilsaglam/todomvc/internal/model"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL+"/api/v1/", opts...)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestCreateTodoPostsPayload(t *testing.T) {
	var got model.NewTodo
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/todos" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":1,"text":"test","isCompleted":false}`))
	})

	todo, err := c.CreateTodo(context.Background(), model.NewTodo{Text: "test"})
	if err != nil {
		t.Fatalf("CreateTodo: %v", err)
	}
	if todo != (model.Todo{ID: 1, Text: "test"}) {
		t.Fatalf("todo = %+v", todo)
	}
	if got != (model.NewTodo{Text: "test"}) {
		t.Fatalf("server saw %+v", got)
	}
}

func TestCreateTodoAcceptsSingleElementArray(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":1,"text":"test","isCompleted":false}]`))
	})
	todo, err := c.CreateTodo(context.Background(), model.NewTodo{Text: "test"})
	if err != nil {
		t.Fatalf("CreateTodo: %v", err)
	}
	if todo.ID != 1 || todo.Text != "test" {
		t.Fatalf("todo = %+v", todo)
	}
}

func TestCreateTodoMalformedBodies(t *testing.T) {
	bodies := []string{
		``,
		`not json`,
		`[]`,
		`[{"id":1,"text":"a"},{"id":2,"text":"b"}]`,
		`{"text":"no id"}`,
	}
	for _, body := range bodies {
		body := body
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		})
		if _, err := c.CreateTodo(context.Background(), model.NewTodo{Text: "x"}); !errors.Is(err, ErrMalformedResponse) {
			t.Errorf("body %q: expected ErrMalformedResponse, got %v", body, err)
		}
	}
}

func TestCreateTodoStatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"db down"}`))
	})
	_, err := c.CreateTodo(context.Background(), model.NewTodo{Text: "x"})
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.StatusCode != http.StatusServiceUnavailable || se.Message != "db down" || !se.Temporary() {
		t.Fatalf("unexpected status error %+v", se)
	}
}

func TestBearerToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer s3cret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}, WithToken(" s3cret "))
	if _, err := c.ListTodos(context.Background()); err != nil {
		t.Fatalf("ListTodos with token: %v", err)
	}

	anon := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"authorization required"}`))
	})
	_, err := anon.ListTodos(context.Background())
	if !IsUnauthorized(err) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestListTodosShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"array", `[{"id":1,"text":"a"},{"id":2,"text":"b","isCompleted":true}]`, 2},
		{"wrapped", `{"items":[{"id":1,"text":"a"}]}`, 1},
		{"empty wrapped", `{}`, 0},
		{"null", `null`, 0},
	}
	for _, tt := range tests {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet || r.URL.Path != "/api/v1/todos" {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			_, _ = w.Write([]byte(tt.body))
		})
		got, err := c.ListTodos(context.Background())
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if got == nil || len(got) != tt.want {
			t.Fatalf("%s: got %#v", tt.name, got)
		}
	}
}

func TestListTodosSharesInflightRequest(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		_, _ = w.Write([]byte(`[{"id":1,"text":"a"}]`))
	})

	var wg sync.WaitGroup
	results := make([][]model.Todo, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = c.ListTodos(context.Background())
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := hits.Load(); n < 1 || n > int32(len(results)) {
		t.Fatalf("unexpected hit count %d", n)
	}
	for i, r := range results {
		if len(r) != 1 {
			t.Fatalf("caller %d got %+v", i, r)
		}
	}
	results[0][0].Text = "mutated"
	if results[1][0].Text != "a" {
		t.Fatal("callers must not share the result slice")
	}
}

func TestListTodosSharedRequestOutlivesFirstCaller(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`[{"id":1,"text":"a"}]`))
	})

	firstErr := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err := c.ListTodos(ctx)
		firstErr <- err
	}()
	for hits.Load() == 0 {
		time.Sleep(5 * time.Millisecond)
	}

	got, err := c.ListTodos(context.Background())
	if err != nil {
		t.Fatalf("second caller with a live context failed: %v", err)
	}
	if len(got) != 1 || got[0].Text != "a" {
		t.Fatalf("second caller got %+v", got)
	}
	if err := <-firstErr; !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("first caller should see its own deadline, got %v", err)
	}
}

func TestCreateTodoHonorsContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := c.CreateTodo(ctx, model.NewTodo{Text: "x"}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestNewClientValidatesURL(t *testing.T) {
	for _, raw := range []string{"", "localhost:8080", "ftp://host/x", "http://"} {
		if _, err := NewClient(raw); err == nil {
			t.Errorf("NewClient(%q) should fail", raw)
		}
	}
	c, err := NewClient("http://localhost:8080/api/v1/")
	if err != nil {
		t.Fatal(err)
	}
	if c.BaseURL() != "http://localhost:8080/api/v1" {
		t.Fatalf("BaseURL = %q", c.BaseURL())
	}
}
