package cmd

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	corerand "github.com/entropic-systems/corerand"
	"github.com/entropic-systems/corerand/drbg"
	"github.com/entropic-systems/corerand/drbg/ctrdrbg"
	"github.com/entropic-systems/corerand/drbg/hashdrbg"
	"github.com/entropic-systems/corerand/drbg/hmacdrbg"
)

// nonceLen is the nonce size requested for Hash_DRBG instantiation: small
// enough to be cheap to fetch, well under hashdrbg.MaxNonceLen.
const nonceLen = 16

var (
	fetchBytes int
	drbgFamily string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Start the core, fetch seed material, and print it as hex",
	Long: `Starts the process-wide pool and collector (running the mandatory
initial slow poll), fetches seed bytes from the pool, optionally drives a
CTR_DRBG, Hash_DRBG, or HMAC_DRBG instantiate/generate with that seed, and
stops the core.`,
	RunE: runFetch,
}

func init() {
	RootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().IntVarP(&fetchBytes, "bytes", "n", 32, "number of bytes to fetch")
	fetchCmd.Flags().StringVar(&drbgFamily, "drbg", "", `instantiate a DRBG from the fetched seed and generate output through it: "ctr", "hash", or "hmac" (default: raw pool fetch, no DRBG)`)
	_ = viper.BindPFlag("bytes", fetchCmd.Flags().Lookup("bytes"))
	_ = viper.BindPFlag("drbg", fetchCmd.Flags().Lookup("drbg"))
}

func runFetch(cmd *cobra.Command, args []string) error {
	if !corerand.Start(corerand.Options{Strict: viper.GetBool("strict")}) {
		return fmt.Errorf("failed to start core")
	}
	defer corerand.Stop()

	if viper.GetBool("user-events") {
		corerand.EnableUserEvents()
	}

	writer := bufio.NewWriter(cmd.OutOrStdout())
	defer func() {
		if err := writer.Flush(); err != nil {
			fmt.Fprintf(os.Stderr, "error flushing output: %v\n", err)
		}
	}()

	n := viper.GetInt("bytes")
	personal := []byte(viper.GetString("personalization"))

	switch family := viper.GetString("drbg"); family {
	case "":
		return runFetchRaw(writer, n)
	case "ctr":
		return runFetchViaCTRDRBG(writer, n, personal)
	case "hash":
		return runFetchViaHashDRBG(writer, n, personal)
	case "hmac":
		return runFetchViaHMACDRBG(writer, n, personal)
	default:
		return fmt.Errorf(`invalid --drbg value %q: want "ctr", "hash", or "hmac"`, family)
	}
}

func runFetchRaw(writer *bufio.Writer, n int) error {
	buf := make([]byte, n)
	if !corerand.Fetch(buf) {
		return fmt.Errorf("fetch failed")
	}

	fmt.Fprintf(writer, "fetched %s: %s\n", humanize.Bytes(uint64(len(buf))), hex.EncodeToString(buf))
	return nil
}

func runFetchViaCTRDRBG(writer *bufio.Writer, n int, personalization []byte) error {
	var seed [ctrdrbg.SeedLen]byte
	if err := corerand.FetchSeed(seed[:]); err != nil {
		return fmt.Errorf("seed fetch failed: %w", err)
	}

	d := ctrdrbg.New()
	if status := d.Instantiate(seed[:], nil, personalization); status != drbg.Success {
		return fmt.Errorf("CTR_DRBG instantiate failed with status %d", status)
	}
	defer d.Clear()

	out := make([]byte, n)
	if status := d.Generate(out, nil); status != drbg.Success {
		return fmt.Errorf("CTR_DRBG generate failed with status %d", status)
	}

	fmt.Fprintf(writer, "generated %s via CTR_DRBG: %s\n", humanize.Bytes(uint64(len(out))), hex.EncodeToString(out))
	return nil
}

func runFetchViaHashDRBG(writer *bufio.Writer, n int, personalization []byte) error {
	entropy := make([]byte, hashdrbg.MinEntropyLen)
	if err := corerand.FetchSeed(entropy); err != nil {
		return fmt.Errorf("entropy fetch failed: %w", err)
	}
	nonce := make([]byte, nonceLen)
	if err := corerand.FetchSeed(nonce); err != nil {
		return fmt.Errorf("nonce fetch failed: %w", err)
	}

	d := hashdrbg.New()
	if status := d.Instantiate(entropy, nonce, personalization); status != drbg.Success {
		return fmt.Errorf("Hash_DRBG instantiate failed with status %d", status)
	}
	defer d.Clear()

	out := make([]byte, n)
	if status := d.Generate(out, nil); status != drbg.Success {
		return fmt.Errorf("Hash_DRBG generate failed with status %d", status)
	}

	fmt.Fprintf(writer, "generated %s via Hash_DRBG: %s\n", humanize.Bytes(uint64(len(out))), hex.EncodeToString(out))
	return nil
}

func runFetchViaHMACDRBG(writer *bufio.Writer, n int, personalization []byte) error {
	entropy := make([]byte, hmacdrbg.OutLen)
	if err := corerand.FetchSeed(entropy); err != nil {
		return fmt.Errorf("entropy fetch failed: %w", err)
	}

	d := hmacdrbg.New()
	if status := d.Instantiate(entropy, nil, personalization); status != drbg.Success {
		return fmt.Errorf("HMAC_DRBG instantiate failed with status %d", status)
	}
	defer d.Clear()

	out := make([]byte, n)
	if status := d.Generate(out, nil); status != drbg.Success {
		return fmt.Errorf("HMAC_DRBG generate failed with status %d", status)
	}

	fmt.Fprintf(writer, "generated %s via HMAC_DRBG: %s\n", humanize.Bytes(uint64(len(out))), hex.EncodeToString(out))
	return nil
}
