package command

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"pwarestaurants/cmd/cli/command/client"
)

var restaurantCmd = &cobra.Command{
	Use:   "restaurant",
	Short: "Restaurant commands",
	Long:  `Browse restaurants, show one with its ratings, and edit its details`,
}

var listRestaurantsCmd = &cobra.Command{
	Use:   "list",
	Short: "List all restaurants",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		restaurants, err := newClient().ListRestaurants()
		if err != nil {
			return fmt.Errorf("failed to list restaurants: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(restaurants) == 0 {
			fmt.Fprintln(out, "No restaurants yet.")
			return nil
		}
		for _, r := range restaurants {
			fmt.Fprintf(out, "%4d  %s\n", r.ID, r.Name)
		}
		return nil
	},
}

var topLimit int

var topRestaurantsCmd = &cobra.Command{
	Use:   "top",
	Short: "Show the best rated restaurants",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		restaurants, err := newClient().TopRated(topLimit)
		if err != nil {
			return fmt.Errorf("failed to get top restaurants: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(restaurants) == 0 {
			fmt.Fprintln(out, "No rated restaurants yet.")
			return nil
		}
		for i, r := range restaurants {
			fmt.Fprintf(out, "%d. %s (id %d)\n", i+1, r.Name, r.ID)
			fmt.Fprintf(out, "   %s\n", r.Description)
		}
		return nil
	},
}

var showRestaurantCmd = &cobra.Command{
	Use:   "show [restaurant-id]",
	Short: "Show a restaurant and its ratings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid restaurant ID: %w", err)
		}

		detail, err := newClient().GetRestaurant(id)
		if err != nil {
			return fmt.Errorf("failed to get restaurant: %w", err)
		}

		out := cmd.OutOrStdout()
		r := detail.Restaurant
		fmt.Fprintf(out, "%s (id %d)\n", r.Name, r.ID)
		fmt.Fprintf(out, "Description: %s\n", r.Description)
		if r.Icon != nil {
			fmt.Fprintf(out, "Icon: %s\n", *r.Icon)
		}

		if len(detail.Ratings) == 0 {
			fmt.Fprintln(out, "No ratings.")
			return nil
		}
		fmt.Fprintf(out, "Ratings (%d):\n", len(detail.Ratings))
		for _, rt := range detail.Ratings {
			comment := ""
			if rt.Comment != nil {
				comment = *rt.Comment
			}
			fmt.Fprintf(out, "  %s  %.1f  %s\n", rt.RatingDate, rt.Rating, comment)
		}
		return nil
	},
}

var (
	updateName        string
	updateDescription string
	updateIcon        string
)

var updateRestaurantCmd = &cobra.Command{
	Use:   "update [restaurant-id]",
	Short: "Change a restaurant's name, description or icon",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid restaurant ID: %w", err)
		}

		req := &client.UpdateRequest{IconPath: updateIcon}
		if cmd.Flags().Changed("name") {
			req.Name = &updateName
		}
		if cmd.Flags().Changed("description") {
			req.Description = &updateDescription
		}
		if req.Name == nil && req.Description == nil && req.IconPath == "" {
			return fmt.Errorf("nothing to update: set --name, --description or --icon")
		}

		result, err := newClient().UpdateRestaurant(id, req)
		if err != nil {
			return fmt.Errorf("failed to update restaurant: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "✓ Restaurant updated successfully!")
		for field, value := range result.Changes {
			fmt.Fprintf(out, "  %s: %v\n", field, value)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(restaurantCmd)

	topRestaurantsCmd.Flags().IntVar(&topLimit, "limit", 0, "number of restaurants to show (server default when 0)")

	updateRestaurantCmd.Flags().StringVar(&updateName, "name", "", "new restaurant name")
	updateRestaurantCmd.Flags().StringVar(&updateDescription, "description", "", "new description, empty resets to the default text")
	updateRestaurantCmd.Flags().StringVar(&updateIcon, "icon", "", "path to a new icon image")

	restaurantCmd.AddCommand(listRestaurantsCmd)
	restaurantCmd.AddCommand(topRestaurantsCmd)
	restaurantCmd.AddCommand(showRestaurantCmd)
	restaurantCmd.AddCommand(updateRestaurantCmd)
}
