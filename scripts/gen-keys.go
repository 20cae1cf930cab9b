// gen-keys writes development signing keys for the challenge creator and
// solver accounts. Each role gets <dir>/<role>.env holding a
// LEDGER_SIGNER_PK_HEX line to source before running `lemma`.
//
//	go run ./scripts/gen-keys.go [-dir .keys] [role ...]
//
// With -show <hex>, it prints the ledger address for an existing key.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/lemma-network/lemma/x/ledger"
)

func main() {
	dir := flag.String("dir", ".keys", "directory for the generated env files")
	show := flag.String("show", "", "print the address of an existing hex private key and exit")
	flag.Parse()

	if *show != "" {
		signer, err := ledger.NewLocalSignerFromHex(*show)
		if err != nil {
			fatal(err)
		}
		fmt.Println(signer.Address().Hex())
		return
	}

	roles := flag.Args()
	if len(roles) == 0 {
		roles = []string{"creator", "solver"}
	}
	if err := os.MkdirAll(*dir, 0o700); err != nil {
		fatal(err)
	}
	for _, role := range roles {
		path, addr, err := writeKey(*dir, strings.ToLower(role))
		if err != nil {
			fatal(err)
		}
		fmt.Printf("%-8s %s  %s\n", role, addr, path)
	}
}

func writeKey(dir, role string) (string, string, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return "", "", err
	}
	addr := crypto.PubkeyToAddress(key.PublicKey).Hex()
	body := fmt.Sprintf("# %s account %s\nLEDGER_SIGNER_PK_HEX=%x\n", role, addr, crypto.FromECDSA(key))

	path := filepath.Join(dir, role+".env")
	if _, err := os.Stat(path); err == nil {
		return "", "", fmt.Errorf("%s exists, refusing to overwrite", path)
	}
	return path, addr, os.WriteFile(path, []byte(body), 0o600)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "gen-keys:", err)
	os.Exit(1)
}
