package models

// Counter is the persistent sequence position for one entity type. Seq only
// ever increases; two concurrent reservations must never observe the same
// pre-increment value.
type Counter struct {
	Name     string `json:"name"`
	Template string `json:"template"`
	Seq      int64  `json:"seq"`
	SeqPad   int    `json:"seq_pad"`
}

// Seed returns the counters provisioned at deploy time, one per entity type.
// Increment against a name outside this set fails rather than auto-creating.
func Seed() []Counter {
	return []Counter{
		{Name: "roles", Template: "ROLE/<seq>", Seq: 1, SeqPad: 4},
		{Name: "owners", Template: "OWNER/<seq>", Seq: 0, SeqPad: 4},
		{Name: "banks", Template: "BANK/<seq>", Seq: 0, SeqPad: 4},
		{Name: "brokers", Template: "BROKER/<seq>", Seq: 0, SeqPad: 4},
		{Name: "issuers", Template: "ISSUER/<seq>", Seq: 0, SeqPad: 4},
		{Name: "stocks", Template: "STOCK/<seq>/<yyyy><mm>", Seq: 0, SeqPad: 5},
		{Name: "payment_stocks", Template: "STOCK-P/<seq>/<yyyy><mm>", Seq: 0, SeqPad: 5},
		{Name: "dividend_stocks", Template: "STOCK-D/<seq>/<yyyy><mm>", Seq: 0, SeqPad: 5},
		{Name: "savings", Template: "SAV/<seq>/<yyyy><mm>", Seq: 0, SeqPad: 5},
		{Name: "deposits", Template: "DEPO/<seq>/<yyyy><mm>", Seq: 0, SeqPad: 5},
		{Name: "bonds", Template: "BOND/<seq>/<yyyy><mm>", Seq: 0, SeqPad: 5},
		{Name: "insurances", Template: "INS/<seq>/<yyyy><mm>", Seq: 0, SeqPad: 5},
	}
}
