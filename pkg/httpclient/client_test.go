package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// testPayload はテスト用のレスポンスペイロード。
type testPayload struct {
	// Name はテスト用の名前フィールド。
	Name string `json:"name"`
	// Value はテスト用の値フィールド。
	Value int `json:"value"`
}

// TestNew はNew関数でクライアントが正しく生成されることを検証する。
func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("末尾のスラッシュが取り除かれること", func(t *testing.T) {
		t.Parallel()

		client := New("http://localhost:8080/")
		if client.baseURL != "http://localhost:8080" {
			t.Errorf("baseURL = %q, want %q", client.baseURL, "http://localhost:8080")
		}
	})

	t.Run("デフォルトのタイムアウトが30秒であること", func(t *testing.T) {
		t.Parallel()

		client := New("http://localhost:8080")
		if client.httpClient.Timeout != 30*time.Second {
			t.Errorf("Timeout = %v, want 30s", client.httpClient.Timeout)
		}
	})

	t.Run("WithTimeoutでタイムアウトを変更できること", func(t *testing.T) {
		t.Parallel()

		client := New("http://localhost:8080", WithTimeout(2*time.Second))
		if client.httpClient.Timeout != 2*time.Second {
			t.Errorf("Timeout = %v, want 2s", client.httpClient.Timeout)
		}
	})
}

// TestGetJSON はGetJSONを検証する。
func TestGetJSON(t *testing.T) {
	t.Parallel()

	t.Run("正常にGETリクエストを送信してレスポンスを取得できること", func(t *testing.T) {
		t.Parallel()

		var gotMethod, gotPath, gotAccept string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotMethod = r.Method
			gotPath = r.URL.Path
			gotAccept = r.Header.Get("Accept")
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"name":"post","value":7}`))
		}))
		defer server.Close()

		var result testPayload
		if err := New(server.URL).GetJSON(context.Background(), "/api/v1/posts/p1", &result); err != nil {
			t.Fatalf("GetJSON()でエラーが発生: %v", err)
		}

		if gotMethod != http.MethodGet {
			t.Errorf("Method = %q, want %q", gotMethod, http.MethodGet)
		}
		if gotPath != "/api/v1/posts/p1" {
			t.Errorf("Path = %q, want %q", gotPath, "/api/v1/posts/p1")
		}
		if gotAccept != "application/json" {
			t.Errorf("Accept = %q, want %q", gotAccept, "application/json")
		}
		if result.Name != "post" || result.Value != 7 {
			t.Errorf("result = %+v, want {post 7}", result)
		}
	})

	t.Run("サーバーが404を返した場合にStatusErrorが返ること", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"not found"}`))
		}))
		defer server.Close()

		err := New(server.URL).GetJSON(context.Background(), "/missing", nil)
		if err == nil {
			t.Fatal("404応答でエラーが返るべき")
		}
		var se *StatusError
		if !errors.As(err, &se) {
			t.Fatalf("エラーの型 = %T, want *StatusError", err)
		}
		if se.StatusCode != http.StatusNotFound {
			t.Errorf("StatusCode = %d, want %d", se.StatusCode, http.StatusNotFound)
		}
		if se.Body != `{"error":"not found"}` {
			t.Errorf("Body = %q", se.Body)
		}
		if !IsNotFound(err) {
			t.Error("IsNotFound() = false, want true")
		}
	})

	t.Run("サーバーが500を返した場合はIsNotFoundがfalseであること", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		err := New(server.URL).GetJSON(context.Background(), "/boom", nil)
		if err == nil {
			t.Fatal("500応答でエラーが返るべき")
		}
		if IsNotFound(err) {
			t.Error("IsNotFound() = true, want false")
		}
	})

	t.Run("不正なJSONレスポンスでエラーが返ること", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{invalid`))
		}))
		defer server.Close()

		var result testPayload
		if err := New(server.URL).GetJSON(context.Background(), "/bad", &result); err == nil {
			t.Fatal("不正なJSONでエラーが返るべき")
		}
	})

	t.Run("キャンセルされたコンテキストでエラーが返ること", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if err := New(server.URL).GetJSON(ctx, "/any", nil); err == nil {
			t.Fatal("キャンセル済みコンテキストでエラーが返るべき")
		}
	})

	t.Run("接続できないサーバーに対してエラーが返ること", func(t *testing.T) {
		t.Parallel()

		client := New("http://127.0.0.1:1", WithTimeout(time.Second))
		if err := client.GetJSON(context.Background(), "/any", nil); err == nil {
			t.Fatal("接続できないサーバーでエラーが返るべき")
		}
	})
}
