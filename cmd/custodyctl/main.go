// Package main はCLIツールのエントリポイント。
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"key-custody-service/internal/hsm"
)

const version = "1.0.0"

var (
	apiURL  string
	output  string
	timeout time.Duration
)

// HTTPクライアント
var httpClient *http.Client

func main() {
	rootCmd := &cobra.Command{
		Use:   "custodyctl",
		Short: "Key Custody Service CLI",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if apiURL == "" {
				apiURL = os.Getenv("CUSTODYCTL_API_URL")
			}
			httpClient = &http.Client{Timeout: timeout}
		},
	}

	// グローバルフラグ
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "API endpoint URL (or set CUSTODYCTL_API_URL)")
	rootCmd.PersistentFlags().StringVar(&output, "output", "text", "Output format: text, json")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Request timeout")

	// サブコマンド登録
	rootCmd.AddCommand(createCmd())
	rootCmd.AddCommand(getCmd())
	rootCmd.AddCommand(releaseCmd())
	rootCmd.AddCommand(authorizeCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(disableCmd())
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// versionCmd はバージョン情報を表示する。
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("custodyctl version %s\n", version)
		},
	}
}

// parameterPayload はAPIへ送る鍵パラメータの形式。
type parameterPayload struct {
	Tag   string      `json:"tag"`
	Value interface{} `json:"value,omitempty"`
}

// parseGenericParam はTAG=VALUE形式のパラメータ指定を解釈する。値を省略した
// 場合はフラグとして送る。整数・真偽値はその型で、それ以外は文字列のまま
// 送る（ブロブ系のタグはBase64文字列を渡す）。
func parseGenericParam(s string) parameterPayload {
	name, value, found := strings.Cut(s, "=")
	if !found || value == "" {
		return parameterPayload{Tag: name}
	}
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return parameterPayload{Tag: name, Value: n}
	}
	if b, err := strconv.ParseBool(value); err == nil {
		return parameterPayload{Tag: name, Value: b}
	}
	return parameterPayload{Tag: name, Value: value}
}

// createCmd は鍵の生成コマンド。
func createCmd() *cobra.Command {
	var (
		alias         string
		algorithm     string
		keySize       int32
		purposes      []string
		blockModes    []string
		paddings      []string
		digests       []string
		curve         string
		genericParams []string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new key",
		RunE: func(cmd *cobra.Command, args []string) error {
			if alias == "" {
				return fmt.Errorf("--alias is required")
			}
			if apiURL == "" {
				return fmt.Errorf("--api-url is required (or set CUSTODYCTL_API_URL)")
			}

			var params []parameterPayload
			if algorithm != "" {
				a, ok := hsm.ParseAlgorithm(algorithm)
				if !ok {
					return fmt.Errorf("unknown algorithm %q", algorithm)
				}
				params = append(params, parameterPayload{Tag: hsm.TagAlgorithm.String(), Value: int32(a)})
			}
			if keySize > 0 {
				params = append(params, parameterPayload{Tag: hsm.TagKeySize.String(), Value: keySize})
			}
			for _, name := range purposes {
				p, ok := hsm.ParseKeyPurpose(name)
				if !ok {
					return fmt.Errorf("unknown purpose %q", name)
				}
				params = append(params, parameterPayload{Tag: hsm.TagPurpose.String(), Value: int32(p)})
			}
			for _, name := range blockModes {
				m, ok := hsm.ParseBlockMode(name)
				if !ok {
					return fmt.Errorf("unknown block mode %q", name)
				}
				params = append(params, parameterPayload{Tag: hsm.TagBlockMode.String(), Value: int32(m)})
			}
			for _, name := range paddings {
				p, ok := hsm.ParsePaddingMode(name)
				if !ok {
					return fmt.Errorf("unknown padding mode %q", name)
				}
				params = append(params, parameterPayload{Tag: hsm.TagPadding.String(), Value: int32(p)})
			}
			for _, name := range digests {
				d, ok := hsm.ParseDigest(name)
				if !ok {
					return fmt.Errorf("unknown digest %q", name)
				}
				params = append(params, parameterPayload{Tag: hsm.TagDigest.String(), Value: int32(d)})
			}
			if curve != "" {
				c, ok := hsm.ParseECCurve(curve)
				if !ok {
					return fmt.Errorf("unknown EC curve %q", curve)
				}
				params = append(params, parameterPayload{Tag: hsm.TagECCurve.String(), Value: int32(c)})
			}
			for _, raw := range genericParams {
				params = append(params, parseGenericParam(raw))
			}

			payload, err := json.Marshal(map[string]interface{}{
				"alias":      alias,
				"parameters": params,
			})
			if err != nil {
				return fmt.Errorf("encoding request: %w", err)
			}

			url := fmt.Sprintf("%s/v1/keys", apiURL)
			resp, err := httpClient.Post(url, "application/json", bytes.NewReader(payload))
			if err != nil {
				return fmt.Errorf("API request failed: %w", err)
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("reading response: %w", err)
			}

			if resp.StatusCode != http.StatusCreated {
				return handleErrorResponse(resp.StatusCode, body)
			}

			if output == "json" {
				fmt.Println(string(body))
			} else {
				var result map[string]interface{}
				if err := json.Unmarshal(body, &result); err != nil {
					return fmt.Errorf("parsing response: %w", err)
				}
				fmt.Printf("Created key %q (status: %v)\n", alias, result["status"])
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&alias, "alias", "", "Key alias (required)")
	cmd.Flags().StringVar(&algorithm, "algorithm", "", "Key algorithm: RSA, EC, AES, TRIPLE_DES, HMAC")
	cmd.Flags().Int32Var(&keySize, "key-size", 0, "Key size in bits")
	cmd.Flags().StringSliceVar(&purposes, "purpose", nil, "Key purpose (repeatable): ENCRYPT, DECRYPT, SIGN, VERIFY, WRAP_KEY, AGREE_KEY, ATTEST_KEY")
	cmd.Flags().StringSliceVar(&blockModes, "block-mode", nil, "Block mode (repeatable): ECB, CBC, CTR, GCM")
	cmd.Flags().StringSliceVar(&paddings, "padding", nil, "Padding mode (repeatable)")
	cmd.Flags().StringSliceVar(&digests, "digest", nil, "Digest (repeatable)")
	cmd.Flags().StringVar(&curve, "curve", "", "EC curve: P_224, P_256, P_384, P_521, CURVE_25519")
	cmd.Flags().StringSliceVar(&genericParams, "param", nil, "Additional parameter as TAG=VALUE (repeatable, omit value for flags)")
	cmd.MarkFlagRequired("alias")
	return cmd
}

// getCmd は鍵特性の取得コマンド。
func getCmd() *cobra.Command {
	var alias string
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Get key characteristics",
		RunE: func(cmd *cobra.Command, args []string) error {
			if alias == "" {
				return fmt.Errorf("--alias is required")
			}
			if apiURL == "" {
				return fmt.Errorf("--api-url is required (or set CUSTODYCTL_API_URL)")
			}

			url := fmt.Sprintf("%s/v1/keys/%s", apiURL, alias)
			resp, err := httpClient.Get(url)
			if err != nil {
				return fmt.Errorf("API request failed: %w", err)
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("reading response: %w", err)
			}

			if resp.StatusCode != http.StatusOK {
				return handleErrorResponse(resp.StatusCode, body)
			}

			if output == "json" {
				fmt.Println(string(body))
			} else {
				var result struct {
					Characteristics []struct {
						SecurityLevel string `json:"security_level"`
						Parameters    []struct {
							Tag   string      `json:"tag"`
							Value interface{} `json:"value"`
						} `json:"parameters"`
					} `json:"characteristics"`
				}
				if err := json.Unmarshal(body, &result); err != nil {
					return fmt.Errorf("parsing response: %w", err)
				}

				w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
				fmt.Fprintln(w, "SECURITY_LEVEL\tTAG\tVALUE")
				for _, block := range result.Characteristics {
					for _, p := range block.Parameters {
						value := "-"
						if p.Value != nil {
							value = fmt.Sprintf("%v", p.Value)
						}
						fmt.Fprintf(w, "%s\t%s\t%s\n", block.SecurityLevel, p.Tag, value)
					}
				}
				if err := w.Flush(); err != nil {
					return fmt.Errorf("flushing output: %w", err)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&alias, "alias", "", "Key alias (required)")
	cmd.MarkFlagRequired("alias")
	return cmd
}

// releaseCmd は鍵素材の取得コマンド。
func releaseCmd() *cobra.Command {
	var alias string
	cmd := &cobra.Command{
		Use:   "release",
		Short: "Release the unwrapped key blob",
		RunE: func(cmd *cobra.Command, args []string) error {
			if alias == "" {
				return fmt.Errorf("--alias is required")
			}
			if apiURL == "" {
				return fmt.Errorf("--api-url is required (or set CUSTODYCTL_API_URL)")
			}

			url := fmt.Sprintf("%s/v1/keys/%s/blob", apiURL, alias)
			resp, err := httpClient.Get(url)
			if err != nil {
				return fmt.Errorf("API request failed: %w", err)
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("reading response: %w", err)
			}

			if resp.StatusCode != http.StatusOK {
				return handleErrorResponse(resp.StatusCode, body)
			}

			if output == "json" {
				fmt.Println(string(body))
			} else {
				var result map[string]interface{}
				if err := json.Unmarshal(body, &result); err != nil {
					return fmt.Errorf("parsing response: %w", err)
				}
				fmt.Println(result["key_blob"])
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&alias, "alias", "", "Key alias (required)")
	cmd.MarkFlagRequired("alias")
	return cmd
}

// authorizeCmd は承認追加コマンド。
func authorizeCmd() *cobra.Command {
	var alias string
	var tag string
	var value string
	cmd := &cobra.Command{
		Use:   "authorize",
		Short: "Attach a host-asserted parameter to a key",
		RunE: func(cmd *cobra.Command, args []string) error {
			if alias == "" {
				return fmt.Errorf("--alias is required")
			}
			if tag == "" {
				return fmt.Errorf("--tag is required")
			}
			if apiURL == "" {
				return fmt.Errorf("--api-url is required (or set CUSTODYCTL_API_URL)")
			}

			param := parseGenericParam(tag + "=" + value)
			payload, err := json.Marshal(param)
			if err != nil {
				return fmt.Errorf("encoding request: %w", err)
			}

			url := fmt.Sprintf("%s/v1/keys/%s/authorizations", apiURL, alias)
			resp, err := httpClient.Post(url, "application/json", bytes.NewReader(payload))
			if err != nil {
				return fmt.Errorf("API request failed: %w", err)
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("reading response: %w", err)
			}

			if resp.StatusCode != http.StatusCreated {
				return handleErrorResponse(resp.StatusCode, body)
			}

			if output == "json" {
				fmt.Println(string(body))
			} else {
				fmt.Printf("Authorized %s on key %q\n", tag, alias)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&alias, "alias", "", "Key alias (required)")
	cmd.Flags().StringVar(&tag, "tag", "", "Tag name (required)")
	cmd.Flags().StringVar(&value, "value", "", "Parameter value (integers as digits, blobs as Base64)")
	cmd.MarkFlagRequired("alias")
	cmd.MarkFlagRequired("tag")
	return cmd
}

// listCmd は鍵一覧の取得コマンド。
func listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			if apiURL == "" {
				return fmt.Errorf("--api-url is required (or set CUSTODYCTL_API_URL)")
			}

			url := fmt.Sprintf("%s/v1/keys", apiURL)
			resp, err := httpClient.Get(url)
			if err != nil {
				return fmt.Errorf("API request failed: %w", err)
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("reading response: %w", err)
			}

			if resp.StatusCode != http.StatusOK {
				return handleErrorResponse(resp.StatusCode, body)
			}

			if output == "json" {
				fmt.Println(string(body))
			} else {
				var result struct {
					Keys []struct {
						Alias     string `json:"alias"`
						Status    string `json:"status"`
						CreatedAt string `json:"created_at"`
					} `json:"keys"`
				}
				if err := json.Unmarshal(body, &result); err != nil {
					return fmt.Errorf("parsing response: %w", err)
				}

				fmt.Printf("%-24s %-10s %s\n", "ALIAS", "STATUS", "CREATED_AT")
				for _, k := range result.Keys {
					fmt.Printf("%-24s %-10s %s\n", k.Alias, k.Status, k.CreatedAt)
				}
			}
			return nil
		},
	}
	return cmd
}

// disableCmd は鍵の無効化コマンド。
func disableCmd() *cobra.Command {
	var alias string
	cmd := &cobra.Command{
		Use:   "disable",
		Short: "Disable a key",
		RunE: func(cmd *cobra.Command, args []string) error {
			if alias == "" {
				return fmt.Errorf("--alias is required")
			}
			if apiURL == "" {
				return fmt.Errorf("--api-url is required (or set CUSTODYCTL_API_URL)")
			}

			url := fmt.Sprintf("%s/v1/keys/%s", apiURL, alias)
			req, err := http.NewRequest(http.MethodDelete, url, nil)
			if err != nil {
				return fmt.Errorf("creating request: %w", err)
			}

			resp, err := httpClient.Do(req)
			if err != nil {
				return fmt.Errorf("API request failed: %w", err)
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("reading response: %w", err)
			}

			if resp.StatusCode != http.StatusAccepted {
				return handleErrorResponse(resp.StatusCode, body)
			}

			if output == "json" {
				fmt.Println("{}")
			} else {
				fmt.Printf("Disabled key %q\n", alias)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&alias, "alias", "", "Key alias (required)")
	cmd.MarkFlagRequired("alias")
	return cmd
}

func handleErrorResponse(statusCode int, body []byte) error {
	var errResp struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&errResp); err == nil && errResp.Message != "" {
		return fmt.Errorf("Error: %s", errResp.Message)
	}
	return fmt.Errorf("Error: server returned status %d", statusCode)
}
