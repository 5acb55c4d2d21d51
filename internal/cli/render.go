package cli

import (
	"fmt"
	"io"
	"math/big"
	"strings"
	"time"

	"github.com/mrz1836/crossdrop/internal/airdrop"
	"github.com/mrz1836/crossdrop/internal/chain"
	"github.com/mrz1836/crossdrop/internal/deploy"
	"github.com/mrz1836/crossdrop/internal/output"
)

// txView is the printed result of approve and send.
type txView struct {
	Action     string   `json:"action"`
	Network    string   `json:"network"`
	TxHash     string   `json:"tx_hash"`
	From       string   `json:"from"`
	Amount     string   `json:"amount"`
	Symbol     string   `json:"symbol"`
	Fee        string   `json:"gas_fee,omitempty"`
	Recipients []string `json:"recipients,omitempty"`
	Block      uint64   `json:"block,omitempty"`
	GasUsed    uint64   `json:"gas_used,omitempty"`
	Explorer   string   `json:"explorer,omitempty"`
}

func newTxView(action, network, symbol string, decimals int, res *airdrop.TxResult) txView {
	v := txView{
		Action:  action,
		Network: network,
		TxHash:  res.Tx.Hash.Hex(),
		From:    res.Tx.From.Hex(),
		Amount:  chain.FormatDecimalAmount(res.Amount, decimals),
		Symbol:  symbol,
	}
	if res.Fee != nil {
		v.Fee = chain.FormatDecimalAmount(res.Fee, 18)
	}
	for _, r := range res.Recipients {
		v.Recipients = append(v.Recipients, r.Hex())
	}
	if res.Receipt != nil {
		if res.Receipt.BlockNumber != nil {
			v.Block = res.Receipt.BlockNumber.Uint64()
		}
		v.GasUsed = res.Receipt.GasUsed
	}
	if n, err := chain.NetworkByName(network); err == nil {
		v.Explorer = n.TxURL(v.TxHash)
	}
	return v
}

func (v txView) RenderText(w io.Writer) error {
	tbl := output.NewTable("FIELD", "VALUE")
	tbl.SetNoHeader(true)
	tbl.AddRow("Transaction:", v.TxHash)
	tbl.AddRow("Amount:", v.Amount+" "+v.Symbol)
	if v.Fee != "" {
		tbl.AddRow("Gas fee:", v.Fee)
	}
	if len(v.Recipients) > 0 {
		tbl.AddRow("Recipients:", fmt.Sprint(len(v.Recipients)))
	}
	if v.Block > 0 {
		tbl.AddRow("Block:", fmt.Sprint(v.Block))
	}
	if v.Explorer != "" {
		tbl.AddRow("Explorer:", v.Explorer)
	}
	return tbl.Render(w)
}

// statusView is the printed destination chain state.
type statusView struct {
	Network      string    `json:"network"`
	Waiting      bool      `json:"waiting"`
	Total        string    `json:"total"`
	PerRecipient string    `json:"per_recipient"`
	Remainder    string    `json:"remainder,omitempty"`
	Symbol       string    `json:"symbol"`
	Recipients   []string  `json:"recipients"`
	CheckedAt    time.Time `json:"checked_at"`
}

func newStatusView(network string, st *airdrop.Status) statusView {
	v := statusView{
		Network:      network,
		Waiting:      st.Waiting,
		Total:        st.FormatTotal(),
		PerRecipient: st.FormatPerRecipient(),
		Symbol:       st.Symbol,
		Recipients:   make([]string, 0, len(st.Recipients)),
		CheckedAt:    st.CheckedAt,
	}
	if st.Remainder != nil && st.Remainder.Sign() > 0 {
		v.Remainder = chain.FormatDecimalAmount(st.Remainder, st.Decimals)
	}
	for _, r := range st.Recipients {
		v.Recipients = append(v.Recipients, r.Hex())
	}
	return v
}

func (v statusView) RenderText(w io.Writer) error {
	if v.Waiting {
		_, err := fmt.Fprintln(w, airdrop.MsgWaiting)
		return err
	}

	if _, err := fmt.Fprintf(w, "Received %s %s on %s, split across %d recipients\n\n",
		v.Total, v.Symbol, v.Network, len(v.Recipients)); err != nil {
		return err
	}

	tbl := output.NewTable("RECIPIENT", "AMOUNT")
	tbl.AlignRight(1)
	for _, r := range v.Recipients {
		tbl.AddRow(r, v.PerRecipient+" "+v.Symbol)
	}
	if err := tbl.Render(w); err != nil {
		return err
	}
	if v.Remainder != "" {
		_, err := fmt.Fprintf(w, "\nUndistributed remainder: %s %s\n", v.Remainder, v.Symbol)
		return err
	}
	return nil
}

// amountView prints allowance and gas fee results.
type amountView struct {
	Label     string `json:"-"`
	Owner     string `json:"owner,omitempty"`
	Spender   string `json:"spender,omitempty"`
	Raw       string `json:"raw"`
	Formatted string `json:"formatted"`
	Symbol    string `json:"symbol"`
	Route     string `json:"route,omitempty"`

	// Signer's flow state, allowance of the signing account only.
	Phase        string `json:"phase,omitempty"`
	LastApproved string `json:"last_approved,omitempty"`
}

func newAmountView(label, symbol string, decimals int, v *big.Int) amountView {
	return amountView{
		Label:     label,
		Raw:       v.String(),
		Formatted: chain.FormatDecimalAmount(v, decimals),
		Symbol:    symbol,
	}
}

func (v amountView) RenderText(w io.Writer) error {
	line := fmt.Sprintf("%s: %s %s", v.Label, v.Formatted, v.Symbol)
	if v.Route != "" {
		line += " (" + v.Route + ")"
	}
	if _, err := fmt.Fprintln(w, line); err != nil {
		return err
	}
	if v.Phase == "" {
		return nil
	}
	line = "Next step: " + v.Phase
	if v.LastApproved != "" {
		line += fmt.Sprintf(" (last approved %s %s)", v.LastApproved, v.Symbol)
	}
	_, err := fmt.Fprintln(w, line)
	return err
}

// sessionView prints the signer's recorded approve and send progress.
type sessionView struct {
	Owner          string   `json:"owner"`
	Phase          string   `json:"phase"`
	ApprovedAmount string   `json:"approved_amount,omitempty"`
	ApproveTx      string   `json:"approve_tx,omitempty"`
	SentAmount     string   `json:"sent_amount,omitempty"`
	SendTx         string   `json:"send_tx,omitempty"`
	Recipients     []string `json:"recipients,omitempty"`
	Symbol         string   `json:"symbol"`
	UpdatedAt      string   `json:"updated_at,omitempty"`
}

func newSessionView(sess *airdrop.Session, symbol string, decimals int) sessionView {
	v := sessionView{
		Owner:  sess.Owner.Hex(),
		Phase:  string(sess.Phase),
		Symbol: symbol,
	}
	if a := sess.ApprovedAmountInt(); a != nil {
		v.ApprovedAmount = chain.FormatDecimalAmount(a, decimals)
	}
	if sess.ApproveTx != nil {
		v.ApproveTx = sess.ApproveTx.Hex()
	}
	if a, ok := new(big.Int).SetString(sess.SentAmount, 10); ok {
		v.SentAmount = chain.FormatDecimalAmount(a, decimals)
	}
	if sess.SendTx != nil {
		v.SendTx = sess.SendTx.Hex()
	}
	for _, r := range sess.Recipients {
		v.Recipients = append(v.Recipients, r.Hex())
	}
	if !sess.UpdatedAt.IsZero() {
		v.UpdatedAt = sess.UpdatedAt.Format(time.RFC3339)
	}
	return v
}

func (v sessionView) RenderText(w io.Writer) error {
	tbl := output.NewTable("FIELD", "VALUE")
	tbl.SetNoHeader(true)
	tbl.AddRow("Account:", v.Owner)
	tbl.AddRow("Next step:", v.Phase)
	if v.ApprovedAmount != "" {
		tbl.AddRow("Approved:", v.ApprovedAmount+" "+v.Symbol)
	}
	if v.ApproveTx != "" {
		tbl.AddRow("Approve tx:", v.ApproveTx)
	}
	if v.SentAmount != "" {
		tbl.AddRow("Sent:", v.SentAmount+" "+v.Symbol)
	}
	if v.SendTx != "" {
		tbl.AddRow("Send tx:", v.SendTx)
	}
	if len(v.Recipients) > 0 {
		tbl.AddRow("Recipients:", fmt.Sprint(len(v.Recipients)))
	}
	if v.UpdatedAt != "" {
		tbl.AddRow("Updated:", v.UpdatedAt)
	}
	return tbl.Render(w)
}

// deployView prints a deployment record.
type deployView struct {
	*deploy.Result

	Explorer string `json:"explorer,omitempty"`
}

func newDeployView(res *deploy.Result) deployView {
	v := deployView{Result: res}
	if n, err := chain.NetworkByName(res.Network); err == nil {
		v.Explorer = n.AddressURL(res.Address.Hex())
	}
	return v
}

func (v deployView) RenderText(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%s contract deployed to %s\n", v.Contract, v.Address.Hex()); err != nil {
		return err
	}
	tbl := output.NewTable("FIELD", "VALUE")
	tbl.SetNoHeader(true)
	tbl.AddRow("Network:", fmt.Sprintf("%s (%d)", v.Network, v.ChainID))
	tbl.AddRow("Transaction:", v.TxHash.Hex())
	tbl.AddRow("Block:", fmt.Sprint(v.Block))
	tbl.AddRow("Gas used:", fmt.Sprint(v.GasUsed))
	if v.Explorer != "" {
		tbl.AddRow("Explorer:", v.Explorer)
	}
	return tbl.Render(w)
}

// deploymentsView lists the deployment history.
type deploymentsView []deploy.Result

func (v deploymentsView) RenderText(w io.Writer) error {
	if len(v) == 0 {
		_, err := fmt.Fprintln(w, "No deployments recorded")
		return err
	}
	tbl := output.NewTable("NETWORK", "CONTRACT", "ADDRESS", "DEPLOYED")
	for _, r := range v {
		tbl.AddRow(r.Network, r.Contract, r.Address.Hex(), r.DeployedAt.Format(time.RFC3339))
	}
	return tbl.Render(w)
}

// routeLabel renders "Polygon -> Avalanche".
func routeLabel(src, dst string) string {
	return strings.TrimSpace(src) + " -> " + strings.TrimSpace(dst)
}
