// Copyright (c) 2025 Netskope, Inc. All rights reserved.

// Package arg wraps the Azure Resource Graph SDK behind the small query
// surface the pipeline needs: an authenticated session bound to one
// subscription, plus "given query text and a row cap, return rows or fail".
package arg

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resourcegraph/armresourcegraph"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armsubscriptions"
	"github.com/netSkope/posture-export-tool/internal/config"
	"github.com/netSkope/posture-export-tool/internal/export"
	"go.uber.org/zap"
)

// Session is an authenticated Resource Graph session. It is bound to one
// subscription at a time; queries are scoped to the bound subscription.
type Session struct {
	graph  *armresourcegraph.Client
	subs   *armsubscriptions.Client
	logger *zap.Logger

	tenantID         string
	subscriptionID   string
	subscriptionName string
}

// NewSession authenticates against Azure and constructs the Resource Graph
// and subscription clients. With a configured client secret a service
// principal credential is used; otherwise the SDK default chain (CLI login,
// managed identity, environment).
func NewSession(cfg *config.Config, logger *zap.Logger) (*Session, error) {
	var cred azcore.TokenCredential
	var err error

	if cfg.AzureClientSecret != "" {
		cred, err = azidentity.NewClientSecretCredential(
			cfg.AzureTenantID, cfg.AzureClientID, cfg.AzureClientSecret, nil)
	} else {
		cred, err = azidentity.NewDefaultAzureCredential(nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build Azure credential: %w", err)
	}

	graph, err := armresourcegraph.NewClient(cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource graph client: %w", err)
	}

	subs, err := armsubscriptions.NewClient(cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create subscriptions client: %w", err)
	}

	return &Session{
		graph:    graph,
		subs:     subs,
		logger:   logger,
		tenantID: cfg.AzureTenantID,
	}, nil
}

// Validate proves the credential works by listing accessible subscriptions,
// and binds the session to the first one if no binding exists yet.
func (s *Session) Validate(ctx context.Context) error {
	pager := s.subs.NewListPager(nil)
	if !pager.More() {
		return fmt.Errorf("no accessible subscriptions")
	}

	page, err := pager.NextPage(ctx)
	if err != nil {
		return fmt.Errorf("failed to list subscriptions: %w", err)
	}
	if len(page.Value) == 0 {
		return fmt.Errorf("credential is valid but no subscriptions are accessible")
	}

	if s.subscriptionID == "" {
		s.bindTo(page.Value[0])
		s.logger.Info("Bound to default subscription",
			zap.String("subscription_id", s.subscriptionID),
			zap.String("subscription_name", s.subscriptionName))
	}

	return nil
}

// Bind resolves a subscription by id or display name and binds the session to
// it. The match on ids is case-insensitive, on display names exact.
func (s *Session) Bind(ctx context.Context, selector string) error {
	pager := s.subs.NewListPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("failed to list subscriptions: %w", err)
		}
		for _, sub := range page.Value {
			if sub == nil || sub.SubscriptionID == nil {
				continue
			}
			if strings.EqualFold(*sub.SubscriptionID, selector) ||
				(sub.DisplayName != nil && *sub.DisplayName == selector) {
				s.bindTo(sub)
				s.logger.Info("Bound to subscription",
					zap.String("subscription_id", s.subscriptionID),
					zap.String("subscription_name", s.subscriptionName))
				return nil
			}
		}
	}
	return fmt.Errorf("subscription %q not found or not accessible", selector)
}

func (s *Session) bindTo(sub *armsubscriptions.Subscription) {
	if sub.SubscriptionID != nil {
		s.subscriptionID = *sub.SubscriptionID
	}
	if sub.DisplayName != nil {
		s.subscriptionName = *sub.DisplayName
	}
	if sub.TenantID != nil {
		s.tenantID = *sub.TenantID
	}
}

// Query runs one Resource Graph query scoped to the bound subscription,
// requesting at most top rows. Column order within each row is sorted so the
// same data always serializes the same way.
func (s *Session) Query(ctx context.Context, query string, top int) ([]export.Row, error) {
	if s.subscriptionID == "" {
		return nil, fmt.Errorf("session is not bound to a subscription")
	}

	req := armresourcegraph.QueryRequest{
		Query:         to.Ptr(query),
		Subscriptions: []*string{to.Ptr(s.subscriptionID)},
		Options: &armresourcegraph.QueryRequestOptions{
			Top:          to.Ptr(int32(top)),
			ResultFormat: to.Ptr(armresourcegraph.ResultFormatObjectArray),
		},
	}

	resp, err := s.graph.Resources(ctx, req, nil)
	if err != nil {
		return nil, fmt.Errorf("resource graph query failed: %w", err)
	}

	rows, err := rowsFromData(resp.Data)
	if err != nil {
		return nil, err
	}

	total := int64(-1)
	if resp.TotalRecords != nil {
		total = *resp.TotalRecords
	}
	s.logger.Debug("Query executed",
		zap.Int("rows", len(rows)),
		zap.Int64("total_records", total),
		zap.String("subscription_id", s.subscriptionID))

	return rows, nil
}

// TenantID returns the tenant the session is authenticated against.
func (s *Session) TenantID() string { return s.tenantID }

// SubscriptionID returns the bound subscription id, empty before binding.
func (s *Session) SubscriptionID() string { return s.subscriptionID }

// SubscriptionName returns the bound subscription display name.
func (s *Session) SubscriptionName() string { return s.subscriptionName }

// rowsFromData converts the object-array response payload into rows. The API
// returns JSON objects whose key order is not meaningful; keys are sorted per
// row for deterministic output.
func rowsFromData(data any) ([]export.Row, error) {
	if data == nil {
		return nil, nil
	}

	items, ok := data.([]any)
	if !ok {
		return nil, fmt.Errorf("unexpected query response shape %T, want object array", data)
	}

	rows := make([]export.Row, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("unexpected record shape %T at index %d", item, i)
		}

		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var row export.Row
		for _, k := range keys {
			row.Set(k, obj[k])
		}
		rows = append(rows, row)
	}

	return rows, nil
}
