package models

// Accepted values for the enumerated trade-in fields.
var (
	ItemTypes = []string{
		"ring", "necklace", "bracelet", "earrings", "pendant", "watch",
		"brooch", "coin", "bullion", "loose_stone", "other",
	}
	MetalTypes      = []string{"gold", "silver", "platinum", "palladium", "titanium", "other"}
	WeightUnits     = []string{"g", "ct", "oz", "dwt"}
	ItemConditions  = []string{"excellent", "good", "fair", "poor", "damaged"}
	NewItemStatuses = []string{"reserved", "ordered", "ready", "delivered"}
)
