package link

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyAccount(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{name: "simple username", path: "examplechan"},
		{name: "underscores and digits", path: "some_chan_42"},
		{name: "minimum length", path: "abcde"},
		{name: "too short", path: "ab", wantErr: ErrInvalidUsername},
		{name: "illegal characters", path: "bad-name!", wantErr: ErrInvalidUsername},
		{name: "empty path", path: "", wantErr: ErrInvalidUsername},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, err := Classify(tt.path, nil)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
			require.Equal(t, KindAccount, target.Kind)
			require.Equal(t, tt.path, target.Identifier)
		})
	}
}

func TestClassifyPost(t *testing.T) {
	target, err := Classify("examplechan/42", nil)
	require.NoError(t, err)
	require.Equal(t, KindPost, target.Kind)
	require.Equal(t, "examplechan", target.Identifier)
	require.Equal(t, 42, target.PostID)

	_, err = Classify("examplechan/not-a-number", nil)
	require.ErrorIs(t, err, ErrInvalidPostID)

	_, err = Classify("ab/42", nil)
	require.ErrorIs(t, err, ErrInvalidUsername)

	_, err = Classify("examplechan/0", nil)
	require.ErrorIs(t, err, ErrInvalidPostID)
}

func TestClassifyJoinChat(t *testing.T) {
	target, err := Classify("joinchat/AAAAAEhW9KKt3EqmrRIKXw", nil)
	require.NoError(t, err)
	require.Equal(t, KindJoinChat, target.Kind)
	require.Equal(t, "AAAAAEhW9KKt3EqmrRIKXw", target.Identifier)

	// Modern "+code" spelling classifies the same way.
	plus, err := Classify("+AAAAAEhW9KKt3EqmrRIKXw", nil)
	require.NoError(t, err)
	require.Equal(t, KindJoinChat, plus.Kind)
	require.Equal(t, target.Identifier, plus.Identifier)

	_, err = Classify("joinchat", nil)
	require.Error(t, err)
}

func TestClassifyAddStickers(t *testing.T) {
	target, err := Classify("addstickers/Animals", nil)
	require.NoError(t, err)
	require.Equal(t, KindAddStickers, target.Kind)
	require.Equal(t, "Animals", target.Identifier)

	_, err = Classify("addstickers/a!", nil)
	require.ErrorIs(t, err, ErrInvalidUsername)
}

func TestClassifyProxy(t *testing.T) {
	validQuery := url.Values{
		"server": {"1.2.3.4"},
		"port":   {"443"},
		"secret": {"0123456789abcdef0123456789abcdef"},
	}

	target, err := Classify("proxy", validQuery)
	require.NoError(t, err)
	require.Equal(t, KindProxy, target.Kind)
	require.Equal(t, "1.2.3.4", target.Proxy.Server)
	require.Equal(t, 443, target.Proxy.Port)

	tests := []struct {
		name    string
		mutate  func(url.Values)
		wantErr error
	}{
		{
			name:    "port not numeric",
			mutate:  func(q url.Values) { q.Set("port", "https") },
			wantErr: ErrInvalidPort,
		},
		{
			name:    "port out of range",
			mutate:  func(q url.Values) { q.Set("port", "70000") },
			wantErr: ErrInvalidPort,
		},
		{
			name:    "secret too short",
			mutate:  func(q url.Values) { q.Set("secret", "abcdef") },
			wantErr: ErrInvalidSecret,
		},
		{
			name:    "secret not hex",
			mutate:  func(q url.Values) { q.Set("secret", "zzzz6789abcdef0123456789abcdef01") },
			wantErr: ErrInvalidSecret,
		},
		{
			name:    "server with illegal characters",
			mutate:  func(q url.Values) { q.Set("server", "bad_host!") },
			wantErr: ErrInvalidServer,
		},
		{
			name:    "server octet out of range",
			mutate:  func(q url.Values) { q.Set("server", "1.2.3.400") },
			wantErr: ErrInvalidServer,
		},
		{
			name:    "server missing",
			mutate:  func(q url.Values) { q.Del("server") },
			wantErr: ErrInvalidServer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query := url.Values{}
			for k, v := range validQuery {
				query[k] = append([]string(nil), v...)
			}

			tt.mutate(query)

			_, err := Classify("proxy", query)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("hostname server accepted", func(t *testing.T) {
		query := url.Values{
			"server": {"proxy.example.com"},
			"port":   {"443"},
			"secret": {"0123456789ABCDEF0123456789abcdef"},
		}

		target, err := Classify("proxy", query)
		require.NoError(t, err)
		require.Equal(t, "proxy.example.com", target.Proxy.Server)
	})
}
