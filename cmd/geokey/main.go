package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"LostFound-App/internal/domain/geo"
	"LostFound-App/internal/domain/model"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "geokey",
		Short:         "GeoKey（geohash）の確認用ツール",
		Long:          `拾得物検索で使うGeoKeyの生成、検索レンジの確認、2点間距離の計算を行います。`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(newEncodeCmd(), newDecodeCmd(), newBoundsCmd(), newDistanceCmd())
	return rootCmd
}

func newEncodeCmd() *cobra.Command {
	var (
		lat, lng  float64
		precision int
	)
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "緯度経度からGeoKeyを生成",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := geo.NewGeocoder(precision).Encode(model.GeoPoint{Latitude: lat, Longitude: lng})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "緯度")
	cmd.Flags().Float64Var(&lng, "lng", 0, "経度")
	cmd.Flags().IntVarP(&precision, "precision", "p", geo.DefaultPrecision, "GeoKeyの文字数 (1-12)")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lng")
	return cmd
}

func newDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <geokey>",
		Short: "GeoKeyのセル中心の緯度経度を表示",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := geo.NewGeocoder(len(args[0])).Decode(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%.6f %.6f\n", p.Latitude, p.Longitude)
			return nil
		},
	}
}

func newBoundsCmd() *cobra.Command {
	var (
		lat, lng, radius float64
		precision        int
		maxCells         int
	)
	cmd := &cobra.Command{
		Use:   "bounds",
		Short: "検索円をカバーするGeoKeyレンジを表示",
		RunE: func(cmd *cobra.Command, args []string) error {
			center := model.GeoPoint{Latitude: lat, Longitude: lng}
			planner := geo.NewPlanner(precision, maxCells)

			ranges, err := planner.Plan(center, radius)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# bits=%d ranges=%d\n", planner.PrecisionBits(center, radius), len(ranges))
			for _, r := range ranges {
				fmt.Fprintf(out, "%s\t%s\n", r.StartKey, r.EndKey)
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "中心の緯度")
	cmd.Flags().Float64Var(&lng, "lng", 0, "中心の経度")
	cmd.Flags().Float64VarP(&radius, "radius", "r", 1000, "検索半径（メートル）")
	cmd.Flags().IntVarP(&precision, "precision", "p", geo.DefaultPrecision, "保存されているGeoKeyの文字数")
	cmd.Flags().IntVar(&maxCells, "max-cells", geo.DefaultMaxCells, "列挙するセル数の上限")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lng")
	return cmd
}

func newDistanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "distance <lat1> <lng1> <lat2> <lng2>",
		Short:   "2点間の大圏距離（メートル）を表示",
		Example: "  geokey distance -- 37.7749 -122.4194 37.7755 -122.4194",
		Args:    cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			var v [4]float64
			for i, a := range args {
				f, err := strconv.ParseFloat(a, 64)
				if err != nil {
					return fmt.Errorf("数値ではありません: %q", a)
				}
				v[i] = f
			}
			a := model.GeoPoint{Latitude: v[0], Longitude: v[1]}
			b := model.GeoPoint{Latitude: v[2], Longitude: v[3]}
			for _, p := range []model.GeoPoint{a, b} {
				if err := geo.ValidatePoint(p); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%.3f\n", geo.DistanceMeters(a, b))
			return nil
		},
	}
}
