package event

const (
	EventGameRegistered    = "game.registered"
	EventGameUnregistered  = "game.unregistered"
	EventCapabilityClaimed = "game.capability_claimed"
	EventLimitsUpdated     = "game.limits_updated"
	EventHouseEdgeUpdated  = "game.house_edge_updated"
	EventGameStatusChanged = "game.status_changed"
	EventBetPlaced         = "bet.placed"
	EventBetSettled        = "bet.settled"
	EventRebalanced        = "treasury.rebalanced"
	EventEquityMinted      = "equity.minted"
	EventEquityRedeemed    = "equity.redeemed"
	EventNAVUpdated        = "equity.nav_updated"
)

// All lists every event the house publishes, for consumers that mirror the
// whole stream.
var All = []string{
	EventGameRegistered,
	EventGameUnregistered,
	EventCapabilityClaimed,
	EventLimitsUpdated,
	EventHouseEdgeUpdated,
	EventGameStatusChanged,
	EventBetPlaced,
	EventBetSettled,
	EventRebalanced,
	EventEquityMinted,
	EventEquityRedeemed,
	EventNAVUpdated,
}
