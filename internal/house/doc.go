// Package house is the treasury and settlement engine of the casino.
//
// Games register with the admin, claim a one-time Capability, and then call
// PlaceBet and SettleBet for every wager. Each game owns an isolated
// sub-treasury that is rebalanced against the central treasury after every
// settlement. Investors mint and redeem equity tokens priced at the
// bankroll's net asset value.
//
// Every operation commits fully or returns a typed *Error leaving all ledgers
// unchanged. Sub-treasuries lock independently, so bets on different games
// proceed in parallel; the central treasury is the only shared lock.
package house
