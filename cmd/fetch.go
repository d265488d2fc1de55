package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const introQuery = `query IntrospectionQuery {
  __schema {
    queryType { name }
    mutationType { name }
    subscriptionType { name }
    types {
      ...FullType
    }
    directives {
      name
      description
      locations
      isRepeatable
      args {
        ...InputValue
      }
    }
  }
}

fragment FullType on __Type {
  kind
  name
  description
  fields(includeDeprecated: true) {
    name
    description
    args {
      ...InputValue
    }
    type {
      ...TypeRef
    }
    isDeprecated
    deprecationReason
  }
  inputFields {
    ...InputValue
  }
  interfaces {
    ...TypeRef
  }
  enumValues(includeDeprecated: true) {
    name
    description
    isDeprecated
    deprecationReason
  }
  possibleTypes {
    ...TypeRef
  }
}

fragment InputValue on __InputValue {
  name
  description
  type { ...TypeRef }
  defaultValue
}

fragment TypeRef on __Type {
  kind
  name
  ofType {
    kind
    name
    ofType {
      kind
      name
      ofType {
        kind
        name
        ofType {
          kind
          name
          ofType {
            kind
            name
            ofType {
              kind
              name
              ofType {
                kind
                name
              }
            }
          }
        }
      }
    }
  }
}`

// graphql-transport-ws message types
const (
	wsSubprotocol    = "graphql-transport-ws"
	wsConnectionInit = "connection_init"
	wsConnectionAck  = "connection_ack"
	wsPing           = "ping"
	wsPong           = "pong"
	wsSubscribe      = "subscribe"
	wsNext           = "next"
	wsError          = "error"
	wsComplete       = "complete"
)

type gqlReq struct {
	Query string `json:"query"`
}

type gqlErr struct {
	Message string `json:"message"`
}

type gqlResp struct {
	Data   json.RawMessage `json:"data"`
	Errors []gqlErr        `json:"errors"`
}

func (r *gqlResp) err() error {
	if len(r.Errors) == 0 {
		return nil
	}

	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Message
	}
	return fmt.Errorf("introspection failed: %s", strings.Join(msgs, "; "))
}

type wsMessage struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type fetchClient struct {
	*http.Client

	dialer *websocket.Dialer
}

func newFetchClient(timeout time.Duration) *fetchClient {
	return &fetchClient{
		Client: &http.Client{Timeout: timeout},
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: timeout,
			Subprotocols:     []string{wsSubprotocol},
		},
	}
}

// isRemote reports whether name refers to a remote file or endpoint.
func isRemote(name string) bool {
	for _, scheme := range []string{"http://", "https://", "ws://", "wss://"} {
		if strings.HasPrefix(name, scheme) {
			return true
		}
	}
	return false
}

// fetch retrieves a remote file. GraphQL endpoints, i.e. websockets
// and URLs whose path ends in "graphql", are introspected and the
// result is returned as SDL.
func (c *fetchClient) fetch(ctx context.Context, u *url.URL, headers http.Header) ([]byte, error) {
	if strings.HasPrefix(u.Scheme, "ws") || path.Base(u.Path) == "graphql" {
		zap.L().Info("fetching types via introspection", zap.String("endpoint", u.String()), zap.Any("headers", headers))
		data, err := c.introspect(ctx, u, headers)
		if err != nil {
			return nil, err
		}
		return toSDL(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header[k] = v
	}

	zap.L().Info("fetching remote file", zap.String("name", u.String()), zap.Any("headers", headers))
	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: unexpected status: %s", u, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// introspect returns the data of an introspection query result.
func (c *fetchClient) introspect(ctx context.Context, endpoint *url.URL, headers http.Header) (json.RawMessage, error) {
	switch endpoint.Scheme {
	case "http", "https":
		return c.introspectHTTP(ctx, endpoint, headers)
	case "ws", "wss":
		return c.introspectWS(ctx, endpoint, headers)
	default:
		return nil, fmt.Errorf("unsupported introspection scheme: %s", endpoint.Scheme)
	}
}

func (c *fetchClient) introspectHTTP(ctx context.Context, endpoint *url.URL, headers http.Header) (json.RawMessage, error) {
	body, err := json.Marshal(gqlReq{Query: introQuery})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header[k] = v
	}
	req.Header.Set("Content-Type", "application/json")

	r, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer r.Body.Close()

	var resp gqlResp
	if err = json.NewDecoder(r.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decoding introspection response (status %s): %w", r.Status, err)
	}
	if err = resp.err(); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// introspectWS runs the introspection query over the graphql-transport-ws subprotocol.
func (c *fetchClient) introspectWS(ctx context.Context, endpoint *url.URL, headers http.Header) (json.RawMessage, error) {
	conn, _, err := c.dialer.DialContext(ctx, endpoint.String(), headers)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if dl, ok := ctx.Deadline(); ok {
		conn.SetReadDeadline(dl)
	}

	if err = conn.WriteJSON(wsMessage{Type: wsConnectionInit}); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(gqlReq{Query: introQuery})
	if err != nil {
		return nil, err
	}

	var data json.RawMessage
	for {
		var msg wsMessage
		if err = conn.ReadJSON(&msg); err != nil {
			return nil, err
		}

		switch msg.Type {
		case wsConnectionAck:
			err = conn.WriteJSON(wsMessage{ID: "1", Type: wsSubscribe, Payload: payload})
		case wsPing:
			err = conn.WriteJSON(wsMessage{Type: wsPong})
		case wsNext:
			var resp gqlResp
			if err = json.Unmarshal(msg.Payload, &resp); err != nil {
				return nil, err
			}
			if err = resp.err(); err != nil {
				return nil, err
			}
			data = resp.Data
		case wsError:
			var errs []gqlErr
			json.Unmarshal(msg.Payload, &errs)
			return nil, (&gqlResp{Errors: errs}).err()
		case wsComplete:
			if data == nil {
				return nil, errors.New("introspection completed without a result")
			}
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return data, nil
		}
		if err != nil {
			return nil, err
		}
	}
}
