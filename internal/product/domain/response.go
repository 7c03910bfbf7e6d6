package domain

import "github.com/bwmarrin/snowflake"

// ToResponse maps a stored product to its API shape.
func ToResponse(p *Product) Response {
	resp := Response{
		ID:            snowflake.ID(p.ID).String(),
		Slug:          p.Slug,
		SellerID:      snowflake.ID(p.SellerID).String(),
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		Type:          string(p.Type),
		Status:        string(p.Status),
		BidCount:      p.BidCount,
		AuctionEndsAt: p.AuctionEndsAt,
		Category:      p.Category,
		Location:      p.Location,
		Images:        []string(p.Images),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	if resp.Images == nil {
		resp.Images = []string{}
	}
	if p.BuyerID != nil {
		buyer := snowflake.ID(*p.BuyerID).String()
		resp.BuyerID = &buyer
	}
	if len(p.Metadata) > 0 {
		resp.Metadata = map[string]any(p.Metadata)
	}
	return resp
}
