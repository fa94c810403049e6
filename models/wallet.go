package models

// WalletSession is the connection state of the operator wallet.
// Address is set if and only if Connected is true.
type WalletSession struct {
	Connected         bool            `json:"connected"`
	Address           string          `json:"address,omitempty"`
	Network           string          `json:"network,omitempty"`
	NetworkPassphrase string          `json:"network_passphrase,omitempty"`
	NetworkDetails    *NetworkDetails `json:"network_details,omitempty"`
}

// Network is what the wallet reports as its active network.
type Network struct {
	Network           string `json:"network"`
	NetworkPassphrase string `json:"network_passphrase"`
}

type NetworkDetails struct {
	Network           string `json:"network"`
	NetworkURL        string `json:"network_url"`
	NetworkPassphrase string `json:"network_passphrase"`
	RPCURL            string `json:"rpc_url,omitempty"`
}

// SignOptions are injected by the client factory on every signing call.
type SignOptions struct {
	NetworkPassphrase string `json:"network_passphrase,omitempty"`
	Address           string `json:"address,omitempty"`
}

// SignedTransaction.SignedTx is the hex encoding of the signed transaction.
type SignedTransaction struct {
	SignedTx      string `json:"signed_tx"`
	SignerAddress string `json:"signer_address"`
}

// SignedAuthEntry.SignedAuthEntry is empty when the wallet declined to sign.
type SignedAuthEntry struct {
	SignedAuthEntry string `json:"signed_auth_entry"`
	SignerAddress   string `json:"signer_address"`
}
