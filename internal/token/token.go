// Package token generates single-use tokens the node uses to authenticate
// a proxy's connect attempt, preventing an unrelated TCP client from
// impersonating the proxy on the node link.
package token

import "github.com/lithammer/shortuuid/v4"

// NodeConnectToken is a single-use credential presented on node connect.
type NodeConnectToken string

// NewNodeConnectToken generates a fresh, unpredictable token.
func NewNodeConnectToken() NodeConnectToken {
	return NodeConnectToken(shortuuid.New())
}

// String returns the token's wire representation.
func (t NodeConnectToken) String() string {
	return string(t)
}
