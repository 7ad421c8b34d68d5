package ra

// FitResult carries every statistic computed for one model fit against a
// reference table (§3, §4.7-§4.8): information-theoretic measures, the
// classical significance tests, and IPF bookkeeping when the model required
// iterative fitting.
type FitResult struct {
	ModelName string `json:"model_name"`

	H  float64 `json:"h"`  // entropy of the fitted distribution, in bits
	T  float64 `json:"t"`  // transmission: KL divergence of the data from the fitted distribution
	DF int     `json:"df"` // degrees of freedom

	DeltaDF int     `json:"delta_df"` // ascending: DF(model) - DF(bottom reference); descending: DF(top reference) - DF(model)
	LR      float64 `json:"lr"`       // likelihood ratio statistic, G^2
	Pearson float64 `json:"pearson"`  // Pearson chi-square statistic
	Alpha   float64 `json:"alpha"`    // p-value of LR against chi-square(DF)
	AIC     float64 `json:"aic"`
	BIC     float64 `json:"bic"`

	HasLoops bool `json:"has_loops"`

	IPFIterations int     `json:"ipf_iterations,omitempty"`
	IPFFinalError float64 `json:"ipf_final_error,omitempty"`
	Converged     bool    `json:"converged"`

	// ConditionalDV and ConfusionMatrix hold the dependent variable's
	// predicted distribution conditioned on the independent variables and
	// the resulting predicted-vs-observed breakdown (§4.7). The fit
	// coordinator does not fill them in, so they stay nil.
	ConditionalDV   *ContingencyTable `json:"-"`
	ConfusionMatrix [][]float64       `json:"confusion_matrix,omitempty"`
}
