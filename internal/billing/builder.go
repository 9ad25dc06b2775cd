package billing

import (
	"sort"

	"github.com/google/uuid"

	"github.com/lmorales-dev/shopstream-backend/pkg/db/models"
)

// BuildSellerBills fans an order's snapshot items out into one bill per
// seller. Each bill carries only that seller's lines, and its total is the
// sum of those lines, independent of any order-level discount.
func BuildSellerBills(orderID uuid.UUID, items []models.OrderItem) []models.SellerBill {
	grouped := make(map[uuid.UUID][]models.BillLine)
	for _, item := range items {
		grouped[item.SellerID] = append(grouped[item.SellerID], models.BillLine{
			ProductID:  item.ProductID,
			Name:       item.Name,
			Quantity:   item.Quantity,
			PriceCents: item.PriceCents,
			SellerID:   item.SellerID,
			SellerName: item.SellerName,
		})
	}

	sellerIDs := make([]uuid.UUID, 0, len(grouped))
	for id := range grouped {
		sellerIDs = append(sellerIDs, id)
	}
	// Stable output order keeps tests and logs deterministic.
	sort.Slice(sellerIDs, func(i, j int) bool {
		return sellerIDs[i].String() < sellerIDs[j].String()
	})

	bills := make([]models.SellerBill, 0, len(sellerIDs))
	for _, sellerID := range sellerIDs {
		lines := grouped[sellerID]
		var total int64
		for _, line := range lines {
			total += line.PriceCents * int64(line.Quantity)
		}
		bills = append(bills, models.SellerBill{
			SellerID:   sellerID,
			OrderID:    orderID,
			TotalCents: total,
			Products:   lines,
		})
	}
	return bills
}
