package command

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"pwarestaurants/cmd/cli/command/client"
)

var ratingCmd = &cobra.Command{
	Use:   "rating",
	Short: "Rating commands",
	Long:  `Rate restaurants (0-5) and delete ratings`,
}

var (
	rateComment     string
	rateDescription string
	rateIcon        string
)

var rateCmd = &cobra.Command{
	Use:   "rate [restaurant-name] [rating]",
	Short: "Rate a restaurant (0-5), creating it if it does not exist",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rating, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid rating: %w", err)
		}
		if rating < 0 || rating > 5 {
			return fmt.Errorf("rating must be between 0 and 5")
		}

		req := &client.RatingRequest{
			RestaurantName: args[0],
			Rating:         rating,
			Comment:        rateComment,
			IconPath:       rateIcon,
		}
		if cmd.Flags().Changed("description") {
			req.Description = &rateDescription
		}

		result, err := newClient().SubmitRating(req)
		if err != nil {
			return fmt.Errorf("failed to rate restaurant: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "✓ Rating submitted successfully!")
		fmt.Fprintf(out, "Restaurant ID: %d\n", result.RestaurantID)
		fmt.Fprintf(out, "Rating date: %s\n", result.RatingDate)
		return nil
	},
}

var deleteRatingCmd = &cobra.Command{
	Use:   "delete [restaurant-id] [rating-date]",
	Short: "Delete one rating of a restaurant",
	Long: `Delete the rating a restaurant received at the given date.
The date uses the format shown by "restaurant show", e.g. "01/12/2025 00:00:01".`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid restaurant ID: %w", err)
		}

		result, err := newClient().DeleteRating(id, args[1])
		if err != nil {
			return fmt.Errorf("failed to delete rating: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s\n", result.Message)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ratingCmd)

	rateCmd.Flags().StringVar(&rateComment, "comment", "", "comment to attach to the rating")
	rateCmd.Flags().StringVar(&rateDescription, "description", "", "description used when the restaurant is created")
	rateCmd.Flags().StringVar(&rateIcon, "icon", "", "icon image used when the restaurant is created")

	ratingCmd.AddCommand(rateCmd)
	ratingCmd.AddCommand(deleteRatingCmd)
}
