package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/placepix/placemedia/pkg/placemedia"
	"github.com/placepix/placemedia/pkg/placemedia/api"
	"github.com/placepix/placemedia/pkg/placemedia/repo/memory"
	memorystorage "github.com/placepix/placemedia/pkg/placemedia/storage/memory"
)

type apiEnv struct {
	server    *httptest.Server
	tokenAuth *jwtauth.JWTAuth
	svc       placemedia.Service
}

func setupAPI(t *testing.T) *apiEnv {
	t.Helper()

	svc, err := placemedia.New(
		placemedia.WithRepository(memory.New()),
		placemedia.WithBlobStore(memorystorage.New()),
	)
	require.NoError(t, err)

	tokenAuth := jwtauth.New("HS256", []byte("test-secret"), nil)

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(api.Identity(tokenAuth))
		r.Mount("/api/v1", api.NewHandler(svc, nil).Routes())
	})

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	return &apiEnv{server: server, tokenAuth: tokenAuth, svc: svc}
}

func (e *apiEnv) token(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	_, tokenString, err := e.tokenAuth.Encode(map[string]interface{}{"sub": userID.String()})
	require.NoError(t, err)
	return tokenString
}

func (e *apiEnv) do(t *testing.T, method, path, token string, body interface{}) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, payload
}

type credentialsResponse struct {
	Credentials map[string]placemedia.UploadCredential `json:"credentials"`
}

// requestUploads issues credentials over HTTP and returns media ids in
// client-key order key-0, key-1, ...
func (e *apiEnv) requestUploads(t *testing.T, token string, n int) []string {
	t.Helper()

	body := api.UploadRequest{}
	for i := 0; i < n; i++ {
		body.Items = append(body.Items, api.UploadItem{
			ClientKey: fmt.Sprintf("key-%d", i),
			MimeType:  "image/jpeg",
		})
	}

	resp, payload := e.do(t, http.MethodPost, "/api/v1/uploads", token, body)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(payload))

	var parsed credentialsResponse
	require.NoError(t, json.Unmarshal(payload, &parsed))
	require.Len(t, parsed.Credentials, n)

	ids := make([]string, n)
	for i := 0; i < n; i++ {
		cred, ok := parsed.Credentials[fmt.Sprintf("key-%d", i)]
		require.True(t, ok)
		ids[i] = cred.MediaID.String()
	}
	return ids
}

func TestAuthentication(t *testing.T) {
	env := setupAPI(t)

	t.Run("missing token", func(t *testing.T) {
		resp, _ := env.do(t, http.MethodGet, "/api/v1/posts", "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("token without sub claim", func(t *testing.T) {
		_, token, err := env.tokenAuth.Encode(map[string]interface{}{"name": "nobody"})
		require.NoError(t, err)

		resp, _ := env.do(t, http.MethodGet, "/api/v1/posts", token, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("token signed with another key", func(t *testing.T) {
		other := jwtauth.New("HS256", []byte("wrong-secret"), nil)
		_, token, err := other.Encode(map[string]interface{}{"sub": uuid.New().String()})
		require.NoError(t, err)

		resp, _ := env.do(t, http.MethodGet, "/api/v1/posts", token, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestUploadEndpoint(t *testing.T) {
	env := setupAPI(t)
	token := env.token(t, uuid.New())

	t.Run("issues credentials", func(t *testing.T) {
		body := api.UploadRequest{Items: []api.UploadItem{
			{ClientKey: "photo-1", MimeType: "image/jpeg", SizeBytes: 1024},
		}}

		resp, payload := env.do(t, http.MethodPost, "/api/v1/uploads", token, body)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var parsed credentialsResponse
		require.NoError(t, json.Unmarshal(payload, &parsed))
		cred, ok := parsed.Credentials["photo-1"]
		require.True(t, ok)
		assert.NotEmpty(t, cred.OriginalUploadURL)
		assert.NotEmpty(t, cred.ThumbnailUploadURL)
	})

	t.Run("empty batch is a bad request", func(t *testing.T) {
		resp, _ := env.do(t, http.MethodPost, "/api/v1/uploads", token, api.UploadRequest{})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("oversized batch returns limit details", func(t *testing.T) {
		body := api.UploadRequest{}
		for i := 0; i < 11; i++ {
			body.Items = append(body.Items, api.UploadItem{
				ClientKey: fmt.Sprintf("over-%d", i), MimeType: "image/jpeg",
			})
		}

		resp, payload := env.do(t, http.MethodPost, "/api/v1/uploads", token, body)
		assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

		var parsed struct {
			Error struct {
				Kind   string `json:"kind"`
				Limit  *int64 `json:"limit"`
				Actual *int64 `json:"actual"`
			} `json:"error"`
		}
		require.NoError(t, json.Unmarshal(payload, &parsed))
		assert.Equal(t, "resource_exhausted", parsed.Error.Kind)
		require.NotNil(t, parsed.Error.Limit)
		require.NotNil(t, parsed.Error.Actual)
		assert.EqualValues(t, 10, *parsed.Error.Limit)
		assert.EqualValues(t, 11, *parsed.Error.Actual)
	})
}

func TestPostEndpoints(t *testing.T) {
	env := setupAPI(t)
	userID := uuid.New()
	token := env.token(t, userID)

	ids := env.requestUploads(t, token, 2)

	var postID string

	t.Run("create", func(t *testing.T) {
		body := api.CreatePostBody{
			Kind:        "record",
			Description: "two oaks by the river",
			Media: []api.BindSpec{
				{MediaID: ids[0], Location: &placemedia.GeoPoint{Lat: 35.6, Lng: 139.7}},
				{MediaID: ids[1], Location: &placemedia.GeoPoint{Lat: 35.7, Lng: 139.8}},
			},
		}

		resp, payload := env.do(t, http.MethodPost, "/api/v1/posts", token, body)
		require.Equal(t, http.StatusCreated, resp.StatusCode, string(payload))

		var post placemedia.Post
		require.NoError(t, json.Unmarshal(payload, &post))
		assert.Equal(t, 2, post.MediaCount)
		assert.NotEmpty(t, post.MainImageURL)
		postID = post.ID.String()
	})

	t.Run("get", func(t *testing.T) {
		resp, payload := env.do(t, http.MethodGet, "/api/v1/posts/"+postID, token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var post placemedia.Post
		require.NoError(t, json.Unmarshal(payload, &post))
		assert.Equal(t, postID, post.ID.String())
	})

	t.Run("get media in display order", func(t *testing.T) {
		resp, payload := env.do(t, http.MethodGet, "/api/v1/posts/"+postID+"/media", token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var parsed struct {
			Media []placemedia.Media `json:"media"`
		}
		require.NoError(t, json.Unmarshal(payload, &parsed))
		require.Len(t, parsed.Media, 2)
		assert.Equal(t, ids[0], parsed.Media[0].ID.String())
		assert.Equal(t, ids[1], parsed.Media[1].ID.String())
	})

	t.Run("list", func(t *testing.T) {
		resp, payload := env.do(t, http.MethodGet, "/api/v1/posts", token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var parsed struct {
			Posts []placemedia.Post `json:"posts"`
		}
		require.NoError(t, json.Unmarshal(payload, &parsed))
		assert.Len(t, parsed.Posts, 1)
	})

	t.Run("patch description", func(t *testing.T) {
		resp, payload := env.do(t, http.MethodPatch, "/api/v1/posts/"+postID, token,
			api.UpdatePostBody{Description: "revised caption"})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var post placemedia.Post
		require.NoError(t, json.Unmarshal(payload, &post))
		assert.Equal(t, "revised caption", post.Description)
	})

	t.Run("update media reorders", func(t *testing.T) {
		body := api.UpdateMediaBody{Target: []api.TargetItem{
			{MediaID: ids[1]},
			{MediaID: ids[0]},
		}}

		resp, _ := env.do(t, http.MethodPut, "/api/v1/posts/"+postID+"/media", token, body)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		_, payload := env.do(t, http.MethodGet, "/api/v1/posts/"+postID+"/media", token, nil)
		var parsed struct {
			Media []placemedia.Media `json:"media"`
		}
		require.NoError(t, json.Unmarshal(payload, &parsed))
		require.Len(t, parsed.Media, 2)
		assert.Equal(t, ids[1], parsed.Media[0].ID.String())
	})

	t.Run("foreign caller gets forbidden", func(t *testing.T) {
		intruder := env.token(t, uuid.New())

		resp, payload := env.do(t, http.MethodDelete, "/api/v1/posts/"+postID, intruder, nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		var parsed struct {
			Error struct {
				Kind string `json:"kind"`
			} `json:"error"`
		}
		require.NoError(t, json.Unmarshal(payload, &parsed))
		assert.Equal(t, "permission_denied", parsed.Error.Kind)
	})

	t.Run("delete", func(t *testing.T) {
		resp, _ := env.do(t, http.MethodDelete, "/api/v1/posts/"+postID, token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp, _ = env.do(t, http.MethodGet, "/api/v1/posts/"+postID, token, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestBadRequests(t *testing.T) {
	env := setupAPI(t)
	token := env.token(t, uuid.New())

	t.Run("malformed json", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, env.server.URL+"/api/v1/posts",
			bytes.NewBufferString("{not json"))
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("invalid post id", func(t *testing.T) {
		resp, _ := env.do(t, http.MethodGet, "/api/v1/posts/not-a-uuid", token, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("invalid media id in bind list", func(t *testing.T) {
		body := api.CreatePostBody{
			Kind:  "ask",
			Media: []api.BindSpec{{MediaID: "nope"}},
		}
		resp, _ := env.do(t, http.MethodPost, "/api/v1/posts", token, body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unknown kind", func(t *testing.T) {
		resp, _ := env.do(t, http.MethodPost, "/api/v1/posts", token,
			api.CreatePostBody{Kind: "story"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}
