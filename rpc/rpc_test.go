package rpc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/delaneyj/hostparty/rpc"
)

func TestAddressEqualIsPositional(t *testing.T) {
	a := rpc.Addr("org", "example", "accounts")

	assert.True(t, a.Equal(rpc.Addr("org", "example", "accounts")))
	assert.False(t, a.Equal(rpc.Addr("example", "org", "accounts")))
	assert.False(t, a.Equal(rpc.Addr("org", "example")))
	assert.True(t, rpc.Addr().Equal(rpc.Addr()))
}

func TestAddressString(t *testing.T) {
	assert.Equal(t, "org/example/accounts", rpc.Addr("org", "example", "accounts").String())
	assert.Equal(t, "", rpc.Addr().String())
}

func TestPolicyString(t *testing.T) {
	assert.Equal(t, "ALLOW", rpc.Allow.String())
	assert.Equal(t, "DENY", rpc.Deny.String())
}

func TestAddressMapLastWriteWins(t *testing.T) {
	m := rpc.NewAddressMap()
	addr := rpc.Addr("org", "example", "files")

	m.Put(addr, rpc.Allow)
	m.Put(addr, rpc.Deny)

	policy, ok := m.Get(addr)
	assert.True(t, ok)
	assert.Equal(t, rpc.Deny, policy)
	assert.Equal(t, 1, m.Len())

	_, ok = m.Get(rpc.Addr("elsewhere"))
	assert.False(t, ok)
}
