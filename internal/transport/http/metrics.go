package httptransport

import "expvar"

var (
	metricGamesDealt       = expvar.NewInt("games_dealt_total")
	metricGameActions      = expvar.NewInt("game_actions_total")
	metricGameActionErrors = expvar.NewInt("game_action_errors_total")
	metricGamesSettled     = expvar.NewInt("games_settled_total")

	metricPurchases      = expvar.NewInt("purchases_total")
	metricPurchaseErrors = expvar.NewInt("purchase_errors_total")

	metricRateLimited      = expvar.NewInt("rate_limited_total")
	metricWalletLogins     = expvar.NewInt("wallet_logins_total")
	metricAdminAdjustments = expvar.NewInt("admin_adjustments_total")
)
