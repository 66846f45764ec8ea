package marketapi

import (
	"context"
	"errors"
	"net/url"

	"wfmarket-sync/internal/model"
)

// FetchItems retrieves the full catalog from base. Right after ResolveBase
// accepted base, the catalog it downloaded is returned without a request.
func (c *Client) FetchItems(ctx context.Context, base string) ([]model.Item, error) {
	u := base + "/items"

	resp, ok := c.takeCatalog(u)
	if !ok {
		resp = &ItemsResponse{}
		if err := c.getJSON(ctx, u, resp); err != nil {
			return nil, err
		}
	}
	if resp.Payload == nil {
		return nil, &FetchError{URL: u, Err: errors.New("response lacks payload")}
	}
	if len(resp.Payload.Items) == 0 {
		return nil, &EmptyCatalogError{URL: u}
	}

	items := make([]model.Item, 0, len(resp.Payload.Items))
	for _, it := range resp.Payload.Items {
		items = append(items, it.ToItem())
	}
	return items, nil
}

// FetchOrders retrieves the order book of the item addressed by urlName.
// ItemID is left empty on the returned orders.
func (c *Client) FetchOrders(ctx context.Context, base, urlName string) ([]model.Order, error) {
	u := base + "/items/" + url.PathEscape(urlName) + "/orders"

	var resp OrdersResponse
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return nil, err
	}
	if resp.Payload == nil {
		return nil, &FetchError{URL: u, Err: errors.New("response lacks payload")}
	}

	orders := make([]model.Order, 0, len(resp.Payload.Orders))
	for _, o := range resp.Payload.Orders {
		orders = append(orders, o.ToOrder())
	}
	return orders, nil
}
