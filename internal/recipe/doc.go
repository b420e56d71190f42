// Package recipe описывает этапы роста дерева как данные.
//
// Рецепт — упорядоченный список этапов (pipeline, цель ожидания, join),
// который Flow выполняет одним общим циклом. Новый рецепт не требует
// нового кода: достаточно файла YAML, TOML или JSON.
//
//	name: lld
//	wait:
//	  poll_interval: 10s
//	  max_polls: 360
//	stages:
//	  - pipeline: Leg Length Discrepency inference
//	    wait_for: heatmaps
//	    join:
//	      title: "{{ .Seed }}-dcm-heatmaps"
//	      filter: '\.dcm$,\.csv$'
//
// Title join узлов — text/template с полями Seed и Branch.
package recipe
