package recipe

import "time"

// Default возвращает встроенный рецепт Leg-Length-Discrepancy.
//
//  1. inference → ждём heatmaps → join с исходными DICOM
//  2. measurements → ждём landmarks-to-json → join
//  3. image report → ждём measurements-to-DICOM → join
//  4. PACS push → ждём pacs-push
func Default() *Recipe {
	return &Recipe{
		Name: "leg-length-discrepancy",
		Wait: Wait{
			PollInterval: Duration(10 * time.Second),
			MaxPolls:     360,
		},
		Stages: []Stage{
			{
				Name:     "inference",
				Pipeline: "Leg Length Discrepency inference",
				WaitFor:  "heatmaps",
				Join: &Join{
					Title:  "{{ .Seed }}-dcm-heatmaps",
					Filter: `\.dcm$,\.csv$`,
				},
			},
			{
				Name:     "prediction",
				Pipeline: "Leg Length Discrepency prediction formatting",
				WaitFor:  "landmarks-to-json",
				Join: &Join{
					Title:  "{{ .Seed }}-dcm-landmarks",
					Filter: `\.dcm$,\.json$`,
				},
			},
			{
				Name:     "measurements",
				Pipeline: "Leg Length Discrepency measurements on image",
				WaitFor:  "measurements-to-DICOM",
				Join: &Join{
					Title:  "{{ .Seed }}-dcm-report",
					Filter: `\.dcm$`,
				},
			},
			{
				Name:     "push",
				Pipeline: "PACS push",
				WaitFor:  "pacs-push",
			},
		},
	}
}
