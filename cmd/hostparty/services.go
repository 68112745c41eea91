package main

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/delaneyj/hostparty/grant"
	"github.com/delaneyj/hostparty/live"
	"github.com/delaneyj/hostparty/registry"
	"github.com/delaneyj/hostparty/rpc"
)

var (
	accountsID = rpc.Addr("org", "example", "accounts")
	appsID     = rpc.Addr("org", "example", "apps")
)

// accountsService owns the live table of account id → display name.
type accountsService struct {
	log  *slog.Logger
	data *live.Table[string]
}

func accountsDescriptor() *registry.Descriptor {
	return &registry.Descriptor{
		ID: accountsID,
		Versions: []registry.Version{
			{Major: 1, Minor: 4},
		},
		New: func(host *registry.Registry, log *slog.Logger, opts registry.ServiceOptions) (any, error) {
			return &accountsService{
				log:  log,
				data: live.NewTable[string](),
			}, nil
		},
	}
}

// appsService manages installed apps and the permission table gating their
// entry points. It depends on the accounts service.
type appsService struct {
	log         *slog.Logger
	accounts    *accountsService
	permissions grant.Table
}

func appsDescriptor() *registry.Descriptor {
	return &registry.Descriptor{
		ID: appsID,
		Versions: []registry.Version{
			{Major: 1, Minor: 0},
		},
		New: func(host *registry.Registry, log *slog.Logger, opts registry.ServiceOptions) (any, error) {
			dep, err := host.GetDependency(accountsID, registry.Minimum(1, 0))
			if err != nil {
				return nil, err
			}
			accounts := dep.(*accountsService)
			s := &appsService{
				log:      log,
				accounts: accounts,
			}
			s.permissions = grant.Table{
				"accounts": {
					ID: "accounts",
					Grant: func(acl rpc.ACLMap, ctx *grant.Context) error {
						acl.Put(rpc.Addr("org", "example", "accounts", "list"), rpc.Allow)
						acl.Put(rpc.Addr("org", "example", "accounts", "write"), rpc.Allow)
						return nil
					},
				},
				"accounts/readonly": {
					ID:       "accounts/readonly",
					Inherits: []string{"accounts"},
					Grant: func(acl rpc.ACLMap, ctx *grant.Context) error {
						acl.Put(rpc.Addr("org", "example", "accounts", "write"), rpc.Deny)
						return nil
					},
				},
			}
			return s, nil
		},
	}
}

// aclRows renders the demo's known addresses in a stable order.
func (s *appsService) aclRows(acl *rpc.AddressMap) [][]string {
	addresses := []rpc.Address{
		rpc.Addr("org", "example", "accounts", "list"),
		rpc.Addr("org", "example", "accounts", "write"),
	}
	sort.Slice(addresses, func(i, j int) bool {
		return addresses[i].String() < addresses[j].String()
	})

	var rows [][]string
	for _, addr := range addresses {
		policy, ok := acl.Get(addr)
		if !ok {
			continue
		}
		rows = append(rows, []string{addr.String(), fmt.Sprint(policy)})
	}
	return rows
}
