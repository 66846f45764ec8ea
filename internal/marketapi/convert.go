package marketapi

import "wfmarket-sync/internal/model"

// ToItem converts an APIItem to the domain model. LastSeen is left for the
// caller to stamp.
func (a APIItem) ToItem() model.Item {
	return model.Item{
		ID:       a.ID,
		URLName:  a.URLName,
		ItemName: a.ItemName,
		Thumb:    a.Thumb,
	}
}

// ToOrder converts an APIOrder to the domain model. A missing user or user
// id maps to model.UnknownUserID; every other optional field passes through.
func (a APIOrder) ToOrder() model.Order {
	o := model.Order{
		OrderID:    a.ID,
		OrderType:  a.OrderType,
		Platinum:   a.Platinum,
		Quantity:   a.Quantity,
		UserID:     model.UnknownUserID,
		ModRank:    a.ModRank,
		Region:     a.Region,
		Platform:   a.Platform,
		CreatedAt:  a.CreationDate,
		LastUpdate: a.LastUpdate,
	}
	if a.User != nil {
		if a.User.ID != nil && *a.User.ID != "" {
			o.UserID = *a.User.ID
		}
		o.UserStatus = a.User.Status
	}
	return o
}
