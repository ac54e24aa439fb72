package main

import (
	"testing"

	"github.com/spf13/cobra"
)

func TestUpdateRequestFromFlagsKeepsOnlyChangedFlags(t *testing.T) {
	var (
		name     string
		keyType  string
		limit    int64
		isActive bool
	)
	cmd := &cobra.Command{Use: "update"}
	cmd.Flags().StringVar(&name, "name", "", "")
	cmd.Flags().StringVar(&keyType, "type", "", "")
	cmd.Flags().Int64Var(&limit, "limit", 0, "")
	cmd.Flags().BoolVar(&isActive, "active", true, "")

	if err := cmd.Flags().Parse([]string{"--limit", "250", "--active=false"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	req := updateRequestFromFlags(cmd, name, keyType, limit, isActive)
	if req.Name != nil || req.Type != nil {
		t.Fatalf("unset flags must stay nil: %+v", req)
	}
	if req.UsageLimit == nil || *req.UsageLimit != 250 {
		t.Fatalf("unexpected usage limit %v", req.UsageLimit)
	}
	if req.IsActive == nil || *req.IsActive {
		t.Fatalf("unexpected active flag %v", req.IsActive)
	}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"migrate", "create", "update"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Fatalf("subcommand %s not registered: %v", name, err)
		}
	}
}
