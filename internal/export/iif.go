package export

import (
	"strconv"
	"strings"

	"fjacquet/txn-recon/internal/dateutils"
	"fjacquet/txn-recon/internal/models"
)

// IIF header block: transaction, split and end markers.
var iifHeader = []string{
	"!TRNS\tTRNSID\tTRNSTYPE\tDATE\tACCNT\tNAME\tCLASS\tAMOUNT\tDOCNUM\tMEMO\tCLEAR\tTOPRINT\tNAMEISTAXABLE\tEXPENSEDATED",
	"!SPL\tSPLID\tTRNSTYPE\tDATE\tACCNT\tNAME\tCLASS\tAMOUNT\tDOCNUM\tMEMO\tCLEAR\tQNTY\tPRICE\tINVITEM\tPAYMETH\tTAXABLE\tREIMBEXP\tEXTRA",
	"!ENDTRNS",
}

// iifLines renders txns as a QuickBooks Desktop interchange file. Each
// transaction is a TRNS line against the checking account balanced by a SPL
// line against its category.
func iifLines(txns []models.Transaction) []string {
	lines := append([]string(nil), iifHeader...)
	for i, t := range txns {
		date := dateutils.ToUSDate(t.Date)
		memo := iifField(orDefault(t.Description, "Transaction"))
		category := iifField(orDefault(t.Category, defaultCategory))
		id := strconv.Itoa(i)

		outflow := t.Type.IsOutflow() || t.Amount.IsNegative()
		kind := "DEPOSIT"
		amount := t.Amount.Abs()
		split := amount.Neg()
		if outflow {
			kind = "CHECK"
			amount, split = split, amount
		}

		lines = append(lines,
			strings.Join([]string{"TRNS", id, kind, date, qboAccount, "", "", amount.StringFixed(2), iifField(t.CheckNumber), memo, "N", "N", "N", date}, "\t"),
			strings.Join([]string{"SPL", id, kind, date, category, "", "", split.StringFixed(2), "", memo, "N", "", "", "", "", "N", "N", ""}, "\t"),
			"ENDTRNS",
		)
	}
	return lines
}

func iifField(s string) string {
	return strings.NewReplacer("\t", " ", "\n", " ", "\r", " ").Replace(s)
}
